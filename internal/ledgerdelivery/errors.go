package ledgerdelivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/pkg/errorspkg"
	"github.com/go-petr/receipt-ledger/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ErrorResponse maps err to its HTTP status and response body. Unclassified
// errors are reported as internal without details.
func ErrorResponse(err error) (int, web.Response) {
	status := domain.HTTPStatus(err)

	var de *domain.Error
	if !errors.As(err, &de) {
		return status, web.Error(errorspkg.ErrInternal)
	}

	res := web.Error(err)

	switch de.Kind {
	case domain.KindFinancialIntegrity:
		if de.TotalDebit != 0 || de.TotalCredit != 0 {
			res.Details = gin.H{"total_debit": de.TotalDebit, "total_credit": de.TotalCredit}
		}
	case domain.KindExternalService:
		res.Error = de.Message
		res.Details = gin.H{"service": de.Service, "status": de.StatusCode}
	}

	return status, res
}

func respondError(gctx *gin.Context, err error) {
	status, res := ErrorResponse(err)

	l := zerolog.Ctx(gctx.Request.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Send()
	} else {
		l.Info().Err(err).Send()
	}

	gctx.JSON(status, res)
}

// BindError responds with 400 and the first failed validation rule.
func BindError(gctx *gin.Context, err error) {
	var (
		ve     validator.ValidationErrors
		errMsg = "invalid request"
	)

	if errors.As(err, &ve) {
		field := ve[0]
		errMsg = field.Field() + web.GetErrorMsg(field)
	}

	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})
}
