package metadata

import (
	"context"
	"encoding/json"
	"net/http"
)

// SSHKeysData maps user names to their authorized public SSH keys.
type SSHKeysData struct {
	Users map[string][]string `json:"users"`
}

// GetSSHKeys returns the public SSH keys configured on the running
// instance, grouped by user.
func (c *Client) GetSSHKeys(ctx context.Context) (*SSHKeysData, error) {
	raw, err := c.apiCall(ctx, apiRequest{
		Method:        http.MethodGet,
		Path:          "/ssh-keys",
		ContentType:   contentTypeJSON,
		Authenticated: true,
	})
	if err != nil {
		return nil, err
	}

	var data SSHKeysData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &DecodeError{ContentType: contentTypeJSON, Err: err}
	}
	return &data, nil
}
