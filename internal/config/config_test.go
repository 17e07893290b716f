package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_RequiresAFeed(t *testing.T) {
	path := writeTempConfig(t, "audit:\n  enable: true\n")
	_, err := Load(path)
	requireErrEq(t, err, "at least one of sbs_servers or mqtt_brokers is required")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, `
sbs_servers:
  - host: 127.0.0.1
mqtt_brokers:
  - host: broker.local
    topic: adsb/sbs
audit:
  enable: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	s := cfg.SBSServers[0]
	if s.Port != 30003 || s.Name != "127.0.0.1:30003" {
		t.Fatalf("sbs server=%+v", s)
	}
	m := cfg.MQTTBrokers[0]
	if m.Port != 1883 || m.KeepAlive != 30*time.Second || m.Name != "broker.local:1883/adsb/sbs" {
		t.Fatalf("mqtt broker=%+v", m)
	}
	if cfg.Audit.Path != "raw_messages.log" {
		t.Fatalf("audit.path=%q", cfg.Audit.Path)
	}
	if cfg.Tracks.EvictInterval != 10*time.Second || cfg.Tracks.EvictAfter != 60*time.Second {
		t.Fatalf("tracks=%+v", cfg.Tracks)
	}
	if cfg.Feeds.ReconnectDelay != 5*time.Second {
		t.Fatalf("reconnect_delay=%s want 5s", cfg.Feeds.ReconnectDelay)
	}
	if cfg.Log.MaxSizeMB != 32 || cfg.Log.MaxBackups != 3 {
		t.Fatalf("log=%+v", cfg.Log)
	}
	if cfg.HexDB.Enable || cfg.HexDB.CachePath != "" {
		t.Fatalf("hexdb defaults applied while disabled: %+v", cfg.HexDB)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
sbs_servers:
  - name: local
    host: 127.0.0.1
    port: 30003
  - name: roof
    host: 10.0.0.7
    port: 40003
mqtt_brokers:
  - name: club
    host: broker.example
    port: 8883
    topic: adsb/sbs
    username: u
    password: p
    keep_alive: 45s
audit:
  enable: true
  path: /tmp/raw.log
tracks:
  evict_interval: 5s
  evict_after: 30s
feeds:
  reconnect_delay: 2s
web:
  listen: 127.0.0.1:8080
log:
  path: /tmp/luftraum.log
  max_size_mb: 8
  max_backups: 1
hexdb:
  enable: true
  requests_per_minute: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.SBSServers) != 2 || cfg.SBSServers[1].Addr() != "10.0.0.7:40003" {
		t.Fatalf("sbs servers=%+v", cfg.SBSServers)
	}
	m := cfg.MQTTBrokers[0]
	if m.Username != "u" || m.Password != "p" || m.KeepAlive != 45*time.Second || m.Port != 8883 {
		t.Fatalf("mqtt broker=%+v", m)
	}
	if cfg.Tracks.EvictInterval != 5*time.Second || cfg.Tracks.EvictAfter != 30*time.Second {
		t.Fatalf("tracks=%+v", cfg.Tracks)
	}
	if cfg.HexDB.BaseURL != "https://hexdb.io/api/v1" || cfg.HexDB.CachePath != "aircraft.db" || cfg.HexDB.RequestsPerMinute != 10 {
		t.Fatalf("hexdb=%+v", cfg.HexDB)
	}
	if cfg.Log.MaxBackups != 1 || cfg.Log.MaxSizeMB != 8 {
		t.Fatalf("log=%+v", cfg.Log)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "sbs host",
			yaml: "sbs_servers:\n  - port: 30003\n",
			want: "sbs_servers[0].host is required",
		},
		{
			name: "sbs port",
			yaml: "sbs_servers:\n  - host: a\n    port: 70000\n",
			want: "sbs_servers[0].port must be 1..65535",
		},
		{
			name: "mqtt topic",
			yaml: "sbs_servers:\n  - host: a\nmqtt_brokers:\n  - host: b\n  - host: c\n",
			want: "mqtt_brokers[0].topic is required",
		},
		{
			name: "mqtt host",
			yaml: "mqtt_brokers:\n  - topic: t\n",
			want: "mqtt_brokers[0].host is required",
		},
		{
			name: "topic comma",
			yaml: "mqtt_brokers:\n  - host: b\n    topic: a,b\n",
			want: "mqtt_brokers[0].topic must not contain ','",
		},
		{
			name: "keep alive",
			yaml: "mqtt_brokers:\n  - host: b\n    topic: t\n    keep_alive: 10ms\n",
			want: "mqtt_brokers[0].keep_alive must be >= 1s",
		},
		{
			name: "duplicate names",
			yaml: "sbs_servers:\n  - name: x\n    host: a\nmqtt_brokers:\n  - name: x\n    host: b\n    topic: t\n",
			want: `mqtt_brokers[0].name "x" duplicates sbs_servers[0].name`,
		},
		{
			name: "name comma",
			yaml: "sbs_servers:\n  - name: a,b\n    host: a\n",
			want: "sbs_servers[0].name must not contain ','",
		},
		{
			name: "evict order",
			yaml: "sbs_servers:\n  - host: a\ntracks:\n  evict_interval: 20s\n  evict_after: 10s\n",
			want: "tracks.evict_after must be >= tracks.evict_interval",
		},
		{
			name: "reconnect delay",
			yaml: "sbs_servers:\n  - host: a\nfeeds:\n  reconnect_delay: -1s\n",
			want: "feeds.reconnect_delay must be > 0",
		},
		{
			name: "hexdb needs web",
			yaml: "sbs_servers:\n  - host: a\nhexdb:\n  enable: true\n",
			want: "hexdb.enable requires web.listen",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "luftraum.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.SBSServers) != 1 || cfg.SBSServers[0].Addr() != "127.0.0.1:30003" {
		t.Fatalf("sbs_servers=%+v", cfg.SBSServers)
	}
	if cfg.Web.Listen == "" {
		t.Fatalf("web.listen empty")
	}
}
