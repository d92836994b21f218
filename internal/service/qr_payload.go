package service

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// qrPayload what a scanned badge identifies
type qrPayload struct {
	RegistrationID string
	Email          string
}

// parseQRPayload accepts the badge encodings printed over time:
//
//	<uuid>
//	REG:<uuid>
//	https://host/path?id=<uuid>   (or registration_id=)
//	{"registration_id":"<uuid>","email":"..."}   (registrationId / id also accepted)
func parseQRPayload(raw string) (qrPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return qrPayload{}, ErrInvalidQRPayload
	}

	var p qrPayload
	switch {
	case strings.HasPrefix(raw, "{"):
		var body map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return qrPayload{}, ErrInvalidQRPayload
		}
		for _, key := range []string{"registration_id", "registrationId", "id"} {
			if v, ok := body[key].(string); ok && v != "" {
				p.RegistrationID = v
				break
			}
		}
		if v, ok := body["email"].(string); ok {
			p.Email = strings.TrimSpace(v)
		}
	case strings.HasPrefix(strings.ToLower(raw), "http://"), strings.HasPrefix(strings.ToLower(raw), "https://"):
		u, err := url.Parse(raw)
		if err != nil {
			return qrPayload{}, ErrInvalidQRPayload
		}
		q := u.Query()
		p.RegistrationID = q.Get("registration_id")
		if p.RegistrationID == "" {
			p.RegistrationID = q.Get("id")
		}
	case len(raw) > 4 && strings.EqualFold(raw[:4], "REG:"):
		p.RegistrationID = strings.TrimSpace(raw[4:])
	default:
		p.RegistrationID = raw
	}

	id, err := uuid.Parse(p.RegistrationID)
	if err != nil {
		return qrPayload{}, ErrInvalidQRPayload
	}
	p.RegistrationID = id.String()
	return p, nil
}
