package metadata

import (
	"context"
	"encoding/json"
	"net/http"
)

// NetworkInterface is one network interface attached to the instance.
type NetworkInterface struct {
	Label       string `json:"label"`
	Purpose     string `json:"purpose"`
	IPAMAddress string `json:"ipam_address"`
}

// IPv4Networking lists the instance's IPv4 addresses by visibility.
type IPv4Networking struct {
	Public  []string `json:"public"`
	Private []string `json:"private"`
	Shared  []string `json:"shared"`
}

// IPv6Networking lists the instance's IPv6 assignments.
type IPv6Networking struct {
	SLAAC        string   `json:"slaac"`
	LinkLocal    string   `json:"link_local"`
	Ranges       []string `json:"ranges"`
	SharedRanges []string `json:"shared_ranges"`
}

// NetworkData is the instance's network configuration.
type NetworkData struct {
	Interfaces []NetworkInterface `json:"interfaces"`
	IPv4       IPv4Networking     `json:"ipv4"`
	IPv6       IPv6Networking     `json:"ipv6"`
}

// GetNetwork returns the running instance's network configuration.
func (c *Client) GetNetwork(ctx context.Context) (*NetworkData, error) {
	raw, err := c.apiCall(ctx, apiRequest{
		Method:        http.MethodGet,
		Path:          "/network",
		ContentType:   contentTypeJSON,
		Authenticated: true,
	})
	if err != nil {
		return nil, err
	}

	var data NetworkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &DecodeError{ContentType: contentTypeJSON, Err: err}
	}
	return &data, nil
}
