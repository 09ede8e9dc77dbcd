package health

import (
	"github.com/gin-gonic/gin"

	"github.com/traceline/traceline/pkg/sdk"
)

// Return status of the API
func getStatus(c *gin.Context) {
	c.JSON(sdk.NewSuccess("OK").AsGinResponse())
}
