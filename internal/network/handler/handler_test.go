package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ascend/internal/network/handler/mocks"
	"ascend/internal/network/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type NetworkHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	admin   chi.Router
}

func TestNetworkHandlerSuite(t *testing.T) {
	suite.Run(t, new(NetworkHandlerSuite))
}

func (s *NetworkHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), 6)

	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.Register(s.router)

	s.admin = chi.NewRouter()
	h.RegisterAdmin(s.admin)
}

func (s *NetworkHandlerSuite) do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func participant(id domain.ParticipantID) *models.Participant {
	return &models.Participant{
		ID:           id,
		ReferralCode: "ABCDEFGH",
		DisplayName:  "Jane",
		Tier:         domain.TierEntry,
		RegisteredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *NetworkHandlerSuite) TestRegister() {
	id := domain.NewParticipantID()
	s.service.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req *models.RegisterRequest) (*models.Participant, error) {
			s.Equal("ABCDEFGH", req.ReferralCode)
			return participant(id), nil
		})

	body, _ := json.Marshal(map[string]string{"email": "jane@example.com", "referral_code": "ABCDEFGH"})
	rec := s.do(s.router, httptest.NewRequest(http.MethodPost, "/participants", bytes.NewReader(body)))

	s.Equal(http.StatusCreated, rec.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(id.String(), resp["id"])
	s.Equal("ABCDEFGH", resp["referral_code"])
}

func (s *NetworkHandlerSuite) TestRegisterRejectsUnknownFields() {
	body := []byte(`{"email":"jane@example.com","tier":"DIAMOND"}`)
	rec := s.do(s.router, httptest.NewRequest(http.MethodPost, "/participants", bytes.NewReader(body)))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *NetworkHandlerSuite) TestUpline() {
	self := domain.NewParticipantID()
	p1 := participant(domain.NewParticipantID())
	p2 := participant(domain.NewParticipantID())

	s.Run("defaults the depth and numbers levels from one", func() {
		s.service.EXPECT().GetUpline(gomock.Any(), self, 6).Return([]*models.Participant{p1, p2}, nil)

		req := testutil.WithParticipant(httptest.NewRequest(http.MethodGet, "/participants/"+self.String()+"/upline", nil), self.String())
		rec := s.do(s.router, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Upline []models.UplineView `json:"upline"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Require().Len(resp.Upline, 2)
		s.Equal(1, resp.Upline[0].Level)
		s.Equal(p2.ID, resp.Upline[1].ID)
	})

	s.Run("rejects an out of range depth", func() {
		req := testutil.WithParticipant(httptest.NewRequest(http.MethodGet, "/participants/"+self.String()+"/upline?depth=99", nil), self.String())
		rec := s.do(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("forbids reading another participant", func() {
		other := domain.NewParticipantID()
		req := testutil.WithParticipant(httptest.NewRequest(http.MethodGet, "/participants/"+other.String()+"/upline", nil), self.String())
		rec := s.do(s.router, req)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *NetworkHandlerSuite) TestLinkErrors() {
	self := domain.NewParticipantID()
	parent := domain.NewParticipantID()
	body, _ := json.Marshal(map[string]string{"parent_id": parent.String()})

	cases := map[dErrors.Code]int{
		dErrors.CodeCycle:         http.StatusConflict,
		dErrors.CodeAlreadyLinked: http.StatusConflict,
		dErrors.CodeNotFound:      http.StatusNotFound,
	}
	for code, status := range cases {
		s.Run(string(code), func() {
			s.service.EXPECT().SetUpline(gomock.Any(), self, parent).Return(dErrors.New(code, "rejected"))
			req := testutil.WithParticipant(httptest.NewRequest(http.MethodPost, "/participants/"+self.String()+"/upline", bytes.NewReader(body)), self.String())
			rec := s.do(s.router, req)
			testutil.AssertStatusAndError(s.T(), rec, status, string(code))
		})
	}
}

func (s *NetworkHandlerSuite) TestAdminActivity() {
	id := domain.NewParticipantID()
	s.service.EXPECT().RecordActivity(gomock.Any(), id, &models.ActivityRequest{Points: 50}).Return(participant(id), nil)

	body := []byte(`{"points":50}`)
	rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/participants/"+id.String()+"/activity", bytes.NewReader(body)))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *NetworkHandlerSuite) TestInternalErrorsDoNotLeak() {
	self := domain.NewParticipantID()
	s.service.EXPECT().NetworkSize(gomock.Any(), self).
		Return(0, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to count network"))

	req := testutil.WithParticipant(httptest.NewRequest(http.MethodGet, "/participants/"+self.String()+"/network-size", nil), self.String())
	rec := s.do(s.router, req)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "unexpected EOF")
}
