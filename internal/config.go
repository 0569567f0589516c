package internal

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/haatos/simple-deploy/internal/util"
)

var Config *Configuration

type HoursDuration time.Duration

func NewHoursDuration(hours int64) HoursDuration {
	return HoursDuration(time.Duration(hours) * time.Hour)
}

func (hd HoursDuration) MarshalJSON() ([]byte, error) {
	hours := float64(time.Duration(hd)) / float64(time.Hour)
	return json.Marshal(hours)
}

func (hd *HoursDuration) UnmarshalJSON(data []byte) error {
	var hours float64
	if err := json.Unmarshal(data, &hours); err != nil {
		return err
	}
	*hd = HoursDuration(hours * float64(time.Hour))
	return nil
}

type MillisDuration time.Duration

func NewMillisDuration(millis int64) MillisDuration {
	return MillisDuration(time.Duration(millis) * time.Millisecond)
}

func (md MillisDuration) MarshalJSON() ([]byte, error) {
	millis := float64(time.Duration(md)) / float64(time.Millisecond)
	return json.Marshal(millis)
}

func (md *MillisDuration) UnmarshalJSON(data []byte) error {
	var millis float64
	if err := json.Unmarshal(data, &millis); err != nil {
		return err
	}
	*md = MillisDuration(millis * float64(time.Millisecond))
	return nil
}

type SecondsDuration time.Duration

func NewSecondsDuration(seconds int64) SecondsDuration {
	return SecondsDuration(time.Duration(seconds) * time.Second)
}

func (sd SecondsDuration) MarshalJSON() ([]byte, error) {
	seconds := float64(time.Duration(sd)) / float64(time.Second)
	return json.Marshal(seconds)
}

func (sd *SecondsDuration) UnmarshalJSON(data []byte) error {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return err
	}
	*sd = SecondsDuration(seconds * float64(time.Second))
	return nil
}

type Configuration struct {
	SessionExpiresHours HoursDuration   `json:"session_expires_hours"`
	QueueSize           int64           `json:"queue_size"`
	PollIntervalSeconds SecondsDuration `json:"poll_interval_seconds"`
	TaskDelayMillis     MillisDuration  `json:"task_delay_millis"`
	WebhookTimeoutMS    MillisDuration  `json:"webhook_timeout_millis"`
}

func InitializeConfiguration() {
	Config = &Configuration{
		SessionExpiresHours: NewHoursDuration(30 * 24),
		QueueSize:           100,
		PollIntervalSeconds: NewSecondsDuration(30),
		TaskDelayMillis:     NewMillisDuration(100),
		WebhookTimeoutMS:    NewMillisDuration(10_000),
	}

	configFileExists, _ := util.PathExists("config.json")
	if !configFileExists {
		b, err := json.MarshalIndent(Config, "", "    ")
		if err != nil {
			log.Fatal(err)
		}
		configFile, err := os.Create("config.json")
		if err != nil {
			log.Fatal(err)
		}
		if _, err := configFile.Write(b); err != nil {
			log.Fatal(err)
		}
	} else {
		configBytes, err := os.ReadFile("config.json")
		if err != nil {
			log.Fatal(err)
		}
		if err := json.Unmarshal(configBytes, &Config); err != nil {
			log.Fatal(err)
		}
	}
}

func UpdateConfiguration(config *Configuration) error {
	b, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return err
	}

	configFile, err := os.Create("config.json")
	if err != nil {
		return err
	}

	if _, err := configFile.Write(b); err != nil {
		return err
	}

	Config = config

	return nil
}
