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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ascend/internal/commission/handler/mocks"
	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type CommissionHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	admin   chi.Router
}

func TestCommissionHandlerSuite(t *testing.T) {
	suite.Run(t, new(CommissionHandlerSuite))
}

func (s *CommissionHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), "USD")

	s.router = chi.NewRouter()
	h.Register(s.router)

	s.admin = chi.NewRouter()
	h.RegisterAdmin(s.admin)
}

func (s *CommissionHandlerSuite) do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *CommissionHandlerSuite) asSelf(method, path string, self domain.ParticipantID) *http.Request {
	return testutil.WithParticipant(httptest.NewRequest(method, path, nil), self.String())
}

func line(payee domain.ParticipantID, status models.LineStatus) *models.Line {
	return &models.Line{
		ID:       domain.NewLineID(),
		SaleID:   domain.NewSaleID(),
		PayeeID:  payee,
		Amount:   decimal.RequireFromString("60.00"),
		Currency: "USD",
		Status:   status,
	}
}

func (s *CommissionHandlerSuite) TestRecordSale() {
	seller := domain.NewParticipantID()
	sale := &models.Sale{ID: domain.NewSaleID(), SellerID: seller, Amount: decimal.RequireFromString("1000.00"), Currency: "USD"}
	body, _ := json.Marshal(map[string]string{"seller_id": seller.String(), "amount": "1000.00", "currency": "usd"})

	s.Run("created when computed inline", func() {
		s.service.EXPECT().RecordSale(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req *models.RecordSaleRequest) (*models.SaleResult, error) {
				s.Equal(seller.String(), req.SellerID)
				return &models.SaleResult{Sale: sale, Lines: []*models.Line{line(seller, models.LinePending)}}, nil
			})
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body)))
		s.Equal(http.StatusCreated, rec.Code)
		testutil.AssertJSONContains(s.T(), rec, "queued", false)
	})

	s.Run("accepted when handed to the consumer", func() {
		s.service.EXPECT().RecordSale(gomock.Any(), gomock.Any()).Return(&models.SaleResult{Sale: sale, Queued: true}, nil)
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body)))
		s.Equal(http.StatusAccepted, rec.Code)
	})

	s.Run("validation errors map to 400", func() {
		s.service.EXPECT().RecordSale(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative"))
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body)))
		testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("sales are not writable by participants", func() {
		rec := s.do(s.router, httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body)))
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *CommissionHandlerSuite) TestVoidSale() {
	id := domain.NewSaleID()

	s.Run("passes the reason through", func() {
		s.service.EXPECT().VoidSale(gomock.Any(), id, &models.VoidSaleRequest{Reason: "refund"}).
			Return(&models.VoidResult{Sale: &models.Sale{ID: id, Status: models.SaleVoided}}, nil)
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales/"+id.String()+"/void", bytes.NewReader([]byte(`{"reason":"refund"}`))))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("already voided is a conflict", func() {
		s.service.EXPECT().VoidSale(gomock.Any(), id, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "sale already voided"))
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales/"+id.String()+"/void", bytes.NewReader([]byte(`{"reason":"refund"}`))))
		testutil.AssertStatusAndError(s.T(), rec, http.StatusConflict, string(dErrors.CodeInvalidState))
	})

	s.Run("rejects a malformed sale id", func() {
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales/not-a-uuid/void", bytes.NewReader([]byte(`{"reason":"refund"}`))))
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *CommissionHandlerSuite) TestComputeCommissions() {
	id := domain.NewSaleID()
	s.service.EXPECT().ComputeCommissions(gomock.Any(), id).Return(nil, dErrors.New(dErrors.CodeNoPlan, "seller has no plan"))

	rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/sales/"+id.String()+"/commissions", nil))
	testutil.AssertStatusAndError(s.T(), rec, http.StatusUnprocessableEntity, string(dErrors.CodeNoPlan))
}

func (s *CommissionHandlerSuite) TestLineAdministration() {
	payee := domain.NewParticipantID()
	l := line(payee, models.LineApproved)

	s.Run("cancel requires a reason", func() {
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/commissions/"+l.ID.String()+"/cancel", bytes.NewReader([]byte(`{"reason":" "}`))))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("cancel", func() {
		s.service.EXPECT().Cancel(gomock.Any(), l.ID, "chargeback").Return(line(payee, models.LineCancelled), nil)
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/commissions/"+l.ID.String()+"/cancel", bytes.NewReader([]byte(`{"reason":"chargeback"}`))))
		s.Equal(http.StatusOK, rec.Code)
		testutil.AssertJSONContains(s.T(), rec, "status", "cancelled")
	})

	s.Run("mark paid uses the given time", func() {
		paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s.service.EXPECT().MarkPaid(gomock.Any(), l.ID, gomock.Any()).DoAndReturn(
			func(_ any, _ domain.LineID, at time.Time) (*models.Line, error) {
				s.True(paidAt.Equal(at))
				return line(payee, models.LinePaid), nil
			})
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/commissions/"+l.ID.String()+"/mark-paid", bytes.NewReader([]byte(`{"paid_at":"2026-03-01T12:00:00Z"}`))))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("approving a paid line is a conflict", func() {
		s.service.EXPECT().Approve(gomock.Any(), l.ID).Return(nil, dErrors.New(dErrors.CodeInvalidState, "line is paid"))
		rec := s.do(s.admin, httptest.NewRequest(http.MethodPost, "/commissions/"+l.ID.String()+"/approve", nil))
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *CommissionHandlerSuite) TestListLines() {
	self := domain.NewParticipantID()

	s.Run("parses the filter", func() {
		s.service.EXPECT().ListLines(gomock.Any(), self, gomock.Any()).DoAndReturn(
			func(_ any, _ domain.ParticipantID, f models.LineFilter) ([]*models.Line, error) {
				s.Equal(models.LineApproved, f.Status)
				s.Require().NotNil(f.Level)
				s.Equal(1, *f.Level)
				s.Equal("EUR", f.Currency)
				s.Equal(10, f.Limit)
				s.Equal(20, f.Offset)
				s.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.Period.From.UTC())
				return []*models.Line{line(self, models.LineApproved)}, nil
			})
		rec := s.do(s.router, s.asSelf(http.MethodGet,
			"/participants/"+self.String()+"/commissions?status=approved&level=1&currency=eur&limit=10&offset=20&from=2026-01-01T00:00:00Z", self))
		s.Equal(http.StatusOK, rec.Code)
		testutil.AssertJSONContains(s.T(), rec, "limit", float64(10))
	})

	s.Run("defaults the page size", func() {
		s.service.EXPECT().ListLines(gomock.Any(), self, gomock.Any()).DoAndReturn(
			func(_ any, _ domain.ParticipantID, f models.LineFilter) ([]*models.Line, error) {
				s.Equal(defaultPageSize, f.Limit)
				s.Nil(f.Level)
				return nil, nil
			})
		rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/commissions", self))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects bad paging", func() {
		for _, q := range []string{"limit=0", "limit=501", "offset=-1", "level=x", "from=yesterday"} {
			rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/commissions?"+q, self))
			s.Equal(http.StatusBadRequest, rec.Code, q)
		}
	})

	s.Run("forbids another participant's ledger", func() {
		other := domain.NewParticipantID()
		rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+other.String()+"/commissions", self))
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *CommissionHandlerSuite) TestReports() {
	self := domain.NewParticipantID()

	s.Run("by level defaults the currency", func() {
		s.service.EXPECT().ByLevel(gomock.Any(), self, domain.Currency("USD"), models.Period{}).
			Return(map[int]models.LevelTotal{0: {Count: 1, Total: decimal.RequireFromString("200.00")}}, nil)
		rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/commissions/by-level", self))
		s.Equal(http.StatusOK, rec.Code)
		testutil.AssertJSONContains(s.T(), rec, "currency", "USD")
	})

	s.Run("by status", func() {
		s.service.EXPECT().ByStatus(gomock.Any(), self, domain.Currency("JPY")).
			Return(map[models.LineStatus]decimal.Decimal{models.LinePending: decimal.NewFromInt(12)}, nil)
		rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/commissions/by-status?currency=jpy", self))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("by period", func() {
		s.service.EXPECT().ByPeriod(gomock.Any(), self, domain.Currency("USD"), gomock.Any(), models.Monthly).
			Return([]models.Bucket{}, nil)
		rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/commissions/by-period?granularity=month", self))
		s.Equal(http.StatusOK, rec.Code)
		testutil.AssertJSONContains(s.T(), rec, "granularity", "month")
	})

	s.Run("rejects an unknown granularity", func() {
		rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/commissions/by-period?granularity=week", self))
		testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("rejects an inverted period", func() {
		rec := s.do(s.router, s.asSelf(http.MethodGet,
			"/participants/"+self.String()+"/commissions/by-level?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z", self))
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *CommissionHandlerSuite) TestInternalErrorsDoNotLeak() {
	self := domain.NewParticipantID()
	s.service.EXPECT().ListSales(gomock.Any(), self).
		Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to list sales"))

	rec := s.do(s.router, s.asSelf(http.MethodGet, "/participants/"+self.String()+"/sales", self))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "unexpected EOF")
}
