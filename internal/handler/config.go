package handler

import (
	"net/http"

	"github.com/haatos/simple-deploy/internal"
	"github.com/labstack/echo/v4"
)

func GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, internal.Config)
}

// PostConfig replaces the runtime configuration file. Queue and poll settings
// take effect on the next restart.
func PostConfig(c echo.Context) error {
	cp := new(ConfigParams)
	if err := c.Bind(cp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid config data")
	}

	config := &internal.Configuration{
		SessionExpiresHours: internal.NewHoursDuration(cp.SessionExpiresHours),
		QueueSize:           cp.QueueSize,
		PollIntervalSeconds: internal.NewSecondsDuration(cp.PollIntervalSeconds),
		TaskDelayMillis:     internal.NewMillisDuration(cp.TaskDelayMillis),
		WebhookTimeoutMS:    internal.NewMillisDuration(cp.WebhookTimeoutMillis),
	}

	if err := internal.UpdateConfiguration(config); err != nil {
		return newError(
			err,
			http.StatusInternalServerError,
			"unable to update configuration file",
		)
	}

	return c.JSON(http.StatusOK, config)
}
