package metadata

import (
	"context"
	"encoding/json"
	"net/http"
)

// InstanceBackups is the instance's backup enrollment state.
type InstanceBackups struct {
	Enabled bool     `json:"enabled"`
	Status  []string `json:"status"`
}

// InstanceSpecs are the technical specifications of the instance.
type InstanceSpecs struct {
	VCPUs    int `json:"vcpus"`
	Disk     int `json:"disk"`
	Memory   int `json:"memory"`
	Transfer int `json:"transfer"`
	GPUs     int `json:"gpus"`
}

// InstanceData describes the running instance.
type InstanceData struct {
	ID       int             `json:"id"`
	HostUUID string          `json:"host_uuid"`
	Label    string          `json:"label"`
	Region   string          `json:"region"`
	Tags     string          `json:"tags"`
	Type     string          `json:"type"`
	Specs    InstanceSpecs   `json:"specs"`
	Backups  InstanceBackups `json:"backups"`
}

// GetInstance returns information about the running instance.
func (c *Client) GetInstance(ctx context.Context) (*InstanceData, error) {
	raw, err := c.apiCall(ctx, apiRequest{
		Method:        http.MethodGet,
		Path:          "/instance",
		ContentType:   contentTypeJSON,
		Authenticated: true,
	})
	if err != nil {
		return nil, err
	}

	var data InstanceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &DecodeError{ContentType: contentTypeJSON, Err: err}
	}
	return &data, nil
}
