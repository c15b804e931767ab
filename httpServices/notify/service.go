package httpServices

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"theater-booking/logger"
)

// NotifyClient posts escalation and reschedule notices to the hospital's
// paging gateway. The gateway fans the notices out to the surgical teams.
type NotifyClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *NotifyClient {
	return &NotifyClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (c *NotifyClient) post(path string, payload interface{}) error {
	if c.baseURL == "" {
		return errors.New("notify gateway base URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("notify gateway returned non-OK status: " + resp.Status)
	}

	var apiResp noticeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return err
	}
	if apiResp.Status != "" && apiResp.Status != "success" {
		return fmt.Errorf("notify gateway rejected notice: %s", apiResp.Message)
	}

	return nil
}

// SendEscalationNotice pages the teams affected by an emergency escalation.
func (c *NotifyClient) SendEscalationNotice(notice EscalationNotice) error {
	return c.post("/notify/escalation/", notice)
}

// SendScheduleChange pages a surgical team whose booking was moved.
func (c *NotifyClient) SendScheduleChange(notice ScheduleChangeNotice) error {
	return c.post("/notify/schedule-change/", notice)
}

// SendEscalationNoticeAsync fires the notice in the background. Escalation
// must not fail because the paging gateway is down.
func (c *NotifyClient) SendEscalationNoticeAsync(notice EscalationNotice) {
	go func() {
		if err := c.SendEscalationNotice(notice); err != nil {
			logger.Warning(fmt.Sprintf("Failed to send escalation notice for emergency %d: %v",
				notice.EmergencyBookingID, err))
		}
	}()
}

// SendScheduleChangeAsync fires a reschedule notice in the background.
func (c *NotifyClient) SendScheduleChangeAsync(notice ScheduleChangeNotice) {
	go func() {
		if err := c.SendScheduleChange(notice); err != nil {
			logger.Warning(fmt.Sprintf("Failed to send schedule change notice for booking %d: %v",
				notice.BookingID, err))
		}
	}()
}
