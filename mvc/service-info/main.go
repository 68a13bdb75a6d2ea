package serviceInfo

import (
	"fmt"
	"net/http"
	"time"

	"ldserver/api/contexts"
	serviceInfo "ldserver/api/models/constants/service-info"
	"ldserver/api/models/dtos"

	"github.com/labstack/echo"
)

func GetRoot(c echo.Context) error {
	fmt.Printf("[%s] - Root hit!\n", time.Now())
	return c.JSON(http.StatusOK, dtos.Ok(serviceInfo.SERVICE_WELCOME))
}

func GetStatus(c echo.Context) error {
	fmt.Printf("[%s] - GetStatus hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	return c.JSON(http.StatusOK, dtos.Ok(dtos.Status{
		Sha:     serviceInfo.SERVICE_SHA,
		Name:    string(serviceInfo.SERVICE_NAME),
		Version: string(serviceInfo.SERVICE_VERSION),
		Cache:   gc.CacheService != nil && gc.CacheService.Healthy(),
	}))
}

func GetServiceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":          serviceInfo.SERVICE_ID,
		"name":        serviceInfo.SERVICE_NAME,
		"type":        serviceInfo.SERVICE_ARTIFACT,
		"description": serviceInfo.SERVICE_DESCRIPTION,
		"version":     serviceInfo.SERVICE_VERSION,
	})
}
