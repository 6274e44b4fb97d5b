package metadata

import (
	"context"
	"encoding/base64"
	"net/http"
)

// GetUserData returns the user data configured on the running instance,
// decoded from the base64 payload the service serves.
func (c *Client) GetUserData(ctx context.Context) (string, error) {
	raw, err := c.apiCall(ctx, apiRequest{
		Method:        http.MethodGet,
		Path:          "/user-data",
		ContentType:   contentTypeText,
		Authenticated: true,
	})
	if err != nil {
		return "", err
	}

	decoded, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return "", &DecodeError{ContentType: contentTypeText, Err: err}
	}
	return string(decoded), nil
}
