package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
)

var statusByCode = map[string]int{
	inventory.CodeDuplicateName:     http.StatusBadRequest,
	inventory.CodeNotFound:          http.StatusNotFound,
	inventory.CodeInvalidKind:       http.StatusBadRequest,
	inventory.CodeInvalidQuantity:   http.StatusUnprocessableEntity,
	inventory.CodeInsufficientStock: http.StatusBadRequest,
	inventory.CodeInvalidInput:      http.StatusUnprocessableEntity,
}

// writeError traduz um erro do domínio para status HTTP e código estável.
// Falhas inesperadas não expõem detalhes internos.
func writeError(c *gin.Context, err error) {
	code := inventory.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  inventory.CodeInternal,
		})
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: inventory.CodeInvalidInput})
}
