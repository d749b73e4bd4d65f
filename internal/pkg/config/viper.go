package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrConfigTypeRequired is returned by NewViperFromBytes for an empty type.
var ErrConfigTypeRequired = errors.New("config: config type is required")

// EnvPrefix namespaces environment overrides, e.g. OTPIFY_DATABASE_URL
// overrides database.url.
const EnvPrefix = "OTPIFY"

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads the file at pathFile, applies environment overrides and
// reloads the file when it changes on disk.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	base := filepath.Base(pathFile)
	v.AddConfigPath(filepath.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(base, filepath.Ext(base)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory. configType is any format
// viper understands ("yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigTypeRequired
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (vc *Viper) GetInt(key string) int       { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32   { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64   { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint(key string) uint     { return vc.v.GetUint(key) }
func (vc *Viper) GetUint16(key string) uint16 { return vc.v.GetUint16(key) }
func (vc *Viper) GetUint32(key string) uint32 { return vc.v.GetUint32(key) }
func (vc *Viper) GetUint64(key string) uint64 { return vc.v.GetUint64(key) }
func (vc *Viper) GetBool(key string) bool     { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }

func (vc *Viper) GetFloat32(key string) float32 { return float32(vc.v.GetFloat64(key)) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetSecond(key string) time.Duration { return vc.scaled(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.scaled(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.scaled(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration    { return vc.scaled(key, 24*time.Hour) }

func (vc *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

// GetBinary returns the value for key decoded from base64, nil when invalid.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray returns the list at key.
func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch val := vc.v.Get(key).(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = cast.ToStringSlice(val)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetMap returns the string map at key.
func (vc *Viper) GetMap(key string) map[string]string {
	val := vc.v.Get(key)
	if s, ok := val.(string); ok {
		m := make(map[string]string)
		for pair := range strings.SplitSeq(s, ",") {
			k, v, found := strings.Cut(pair, ":")
			if found {
				m[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
		return m
	}
	return cast.ToStringMapString(val)
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
