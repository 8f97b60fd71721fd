package handlers

import (
	"context"
	"errors"
	"net/http"

	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉為 JSON 回應。CustomError 依其狀態碼與訊息回應，
// 其他錯誤一律為 500，詳細內容只在 debug 模式回傳。
func RespondError(c *gin.Context, err error) {
	if ce, ok := common.AsCustomError(err); ok {
		if ce.Status >= http.StatusInternalServerError {
			logFailure(c, err)
		}
		c.JSON(ce.Status, common.ErrorResponse{
			Error:   ce.Message,
			Code:    ce.Code,
			Details: details(c, ce.Err),
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logFailure(c, err)
		c.JSON(http.StatusGatewayTimeout, common.ErrorResponse{
			Error: "Tiempo de espera agotado",
			Code:  common.ErrCodeGatewayTimeout,
		})
		return
	}

	logFailure(c, err)
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Error:   common.ErrInternalError.Message,
		Code:    common.ErrCodeInternalError,
		Details: details(c, err),
	})
}

// RespondBadRequest 回傳 400 與使用者可讀的訊息
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Error: message,
		Code:  common.ErrCodeInvalidRequest,
	})
}

// RespondNotFound 回傳 404
func RespondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, common.ErrorResponse{
		Error: message,
		Code:  common.ErrCodeNotFound,
	})
}

func logFailure(c *gin.Context, err error) {
	common.LogError("Request failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	)
}

func details(c *gin.Context, err error) string {
	if err == nil {
		return ""
	}
	v, ok := c.Get("config")
	if !ok {
		return ""
	}
	if cfg, ok := v.(*config.Config); ok && cfg.App.Debug {
		return err.Error()
	}
	return ""
}
