package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
)

// adminIDs администратор и объект действия из пути.
type adminIDs struct {
	actor  uuid.UUID
	target uuid.UUID
}

// runAdminAction разбирает актора и :param, вызывает fn и отдаёт результат 200.
func runAdminAction(c *gin.Context, param string, fn func(*gin.Context, adminIDs) (interface{}, error)) {
	actor, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	target, err := common.ParseUUIDParam(c, param)
	if err != nil {
		common.Fail(c, err)
		return
	}

	result, err := fn(c, adminIDs{actor: actor, target: target})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
