package router

import "github.com/gin-gonic/gin"

// JsonErrorResponse and JsonResponse are the envelope shapes every handler
// replies with, grounded on the teacher's router/handler.go JSONError/
// SimpleJSONResponse pair, adapted from raw http.ResponseWriter writes to
// gin's c.JSON.
type JsonErrorResponse struct {
	EventName    string `json:"event"`
	ErrorMessage string `json:"error_message"`
}

type JsonResponse struct {
	Message string `json:"message"`
}

func jsonError(c *gin.Context, event, message string, code int) {
	c.JSON(code, JsonErrorResponse{EventName: event, ErrorMessage: message})
}

func jsonOK(c *gin.Context, message string) {
	c.JSON(200, JsonResponse{Message: message})
}
