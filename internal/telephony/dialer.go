package telephony

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type callCreator interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

// TwilioDialer places outbound calls through the Twilio REST API.
type TwilioDialer struct {
	accountSID string
	authToken  string
	client     callCreator
}

func NewTwilioDialer(accountSID, authToken string) *TwilioDialer {
	return &TwilioDialer{accountSID: accountSID, authToken: authToken}
}

// Dial creates the call and returns the provider call SID. callbackURL is
// where Twilio fetches TwiML instructions once the call connects.
func (d *TwilioDialer) Dial(ctx context.Context, to, from, callbackURL string) (string, error) {
	_ = ctx // twilio-go's REST client does not take a context
	if to == "" || from == "" {
		return "", errors.New("to and from numbers are required")
	}
	if d.accountSID == "" || d.authToken == "" {
		return "", errors.New("missing twilio credentials")
	}

	client := d.client
	if client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: d.accountSID,
			Password: d.authToken,
		})
		client = rest.Api
	}

	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetUrl(callbackURL)

	resp, err := client.CreateCall(params)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Sid == nil {
		return "", errors.New("twilio response missing call sid")
	}
	return *resp.Sid, nil
}
