package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConfigType is the declared value type of a configuration entry.
type ConfigType string

const (
	ConfigString  ConfigType = "string"
	ConfigInteger ConfigType = "integer"
	ConfigBoolean ConfigType = "boolean"
	ConfigJSON    ConfigType = "json"
)

// SystemConfiguration is a typed key-value setting. Writes go through the
// config service so every change lands in the audit log with old/new values.
type SystemConfiguration struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Key         string     `json:"key" gorm:"type:varchar(100);uniqueIndex;not null"`
	Value       string     `json:"value" gorm:"type:text"`
	DataType    ConfigType `json:"data_type" gorm:"type:varchar(20);not null;default:'string'"`
	Description string     `json:"description" gorm:"type:text"`
	Category    string     `json:"category" gorm:"type:varchar(50);default:'general'"`

	// IsPublic settings are readable without the administrator role.
	// IsSystem settings cannot be deleted.
	IsPublic bool `json:"is_public" gorm:"not null;default:false"`
	IsSystem bool `json:"is_system" gorm:"not null;default:false"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

// TableName specifies the table name
func (SystemConfiguration) TableName() string {
	return "system_configurations"
}

// TypedValue decodes the stored string according to the declared type.
func (c *SystemConfiguration) TypedValue() (interface{}, error) {
	if c.Value == "" {
		return nil, nil
	}
	switch c.DataType {
	case ConfigInteger:
		return strconv.Atoi(c.Value)
	case ConfigBoolean:
		v := strings.ToLower(c.Value)
		return v == "true" || v == "1" || v == "yes" || v == "on", nil
	case ConfigJSON:
		var out interface{}
		if err := json.Unmarshal([]byte(c.Value), &out); err != nil {
			return nil, fmt.Errorf("config %q: invalid json value: %w", c.Key, err)
		}
		return out, nil
	default:
		return c.Value, nil
	}
}

// EncodeValue stores a typed value as its string representation.
func (c *SystemConfiguration) EncodeValue(value interface{}) error {
	switch c.DataType {
	case ConfigJSON:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("config %q: cannot encode json value: %w", c.Key, err)
		}
		c.Value = string(raw)
	default:
		c.Value = fmt.Sprintf("%v", value)
	}
	return nil
}
