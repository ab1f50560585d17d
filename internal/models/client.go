package models

import "time"

// Client represents a customer of the company as returned by the remote API.
type Client struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ICE       string     `json:"ice"`
	Phone     string     `json:"telephone"`
	Address   string     `json:"adresse"`
	CreatedAt string     `json:"created_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (c *Client) GetID() string            { return c.ID }
func (c *Client) GetDeletedAt() *time.Time { return c.DeletedAt }

// WithDeletedAt returns a copy of the client carrying the given tombstone.
func (c *Client) WithDeletedAt(t *time.Time) *Client {
	cp := *c
	cp.DeletedAt = t
	return &cp
}

// IsDeleted reports whether the client sits in the trash.
func (c *Client) IsDeleted() bool { return c.DeletedAt != nil }
