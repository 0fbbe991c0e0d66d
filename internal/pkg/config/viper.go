package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "IDEABOX"

// Viper is a Config backed by github.com/spf13/viper. A file-backed instance
// reloads on change by swapping in a freshly parsed viper, so readers never
// see a half-loaded file; a file that fails to parse keeps the old values.
type Viper struct {
	cur     atomic.Pointer[viper.Viper]
	watcher *fsnotify.Watcher
}

// NewViper loads the file at pathFile (type from its extension) and watches
// its directory for changes.
func NewViper(pathFile string) (*Viper, error) {
	v, err := loadFile(pathFile)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// The directory, not the file: editors and ConfigMap mounts replace the
	// file instead of writing to it.
	if err := w.Add(filepath.Dir(pathFile)); err != nil {
		return nil, errors.Join(err, w.Close())
	}

	vc := &Viper{watcher: w}
	vc.cur.Store(v)
	go vc.watch(pathFile)

	return vc, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	v.SetConfigType(configType)
	bindEnv(v)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	vc := &Viper{}
	vc.cur.Store(v)
	return vc, nil
}

func loadFile(pathFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(pathFile)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

func (vc *Viper) watch(pathFile string) {
	target := filepath.Clean(pathFile)
	for {
		select {
		case ev, ok := <-vc.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// "..data" is the symlink a ConfigMap mount flips on update.
			if filepath.Clean(ev.Name) != target && !strings.HasPrefix(filepath.Base(ev.Name), "..") {
				continue
			}

			v, err := loadFile(pathFile)
			if err != nil {
				slog.Error("config reload failed, keeping previous values", "path", pathFile, "error", err)
				continue
			}
			vc.cur.Store(v)
			slog.Info("config reloaded", "path", pathFile)

		case err, ok := <-vc.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "path", pathFile, "error", err)
		}
	}
}

// bindEnv lets IDEABOX_DATABASE_IDENTITY_DRIVER override database.identity.driver.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func (vc *Viper) GetInt(key string) int         { return vc.cur.Load().GetInt(key) }
func (vc *Viper) GetInt32(key string) int32     { return vc.cur.Load().GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64     { return vc.cur.Load().GetInt64(key) }
func (vc *Viper) GetUint64(key string) uint64   { return vc.cur.Load().GetUint64(key) }
func (vc *Viper) GetBool(key string) bool       { return vc.cur.Load().GetBool(key) }
func (vc *Viper) GetString(key string) string   { return vc.cur.Load().GetString(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.cur.Load().GetFloat64(key) }

// GetUint16 returns the value for key as uint16; it is used for NSQ max attempts.
func (vc *Viper) GetUint16(key string) uint16 {
	return vc.cur.Load().GetUint16(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.cur.Load().GetInt64(key)) * time.Second
}

// GetBinary returns the value for key decoded from base64.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.cur.Load().GetString(key))
	if err != nil {
		return nil
	}

	return data
}

// GetArray returns the value for key split by commas. YAML sequences are
// accepted as well; blank elements are dropped.
func (vc *Viper) GetArray(key string) []string {
	v := vc.cur.Load()

	var raw []string
	switch v.Get(key).(type) {
	case []any, []string:
		raw = v.GetStringSlice(key)
	default:
		raw = strings.Split(v.GetString(key), ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Close stops the file watcher, if any.
func (vc *Viper) Close() error {
	if vc.watcher == nil {
		return nil
	}
	return vc.watcher.Close()
}
