package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Store    StoreConfig
		Database DatabaseConfig
		Firebase FirebaseConfig
		Blob     BlobConfig
		Schedule ScheduleConfig
		Ledger   LedgerConfig
		CronSpec string // achievements re-evaluation
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	StoreConfig struct {
		Backend string // memory | postgres | firestore
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	FirebaseConfig struct {
		ProjectID       string
		CredentialsFile string
	}

	BlobConfig struct {
		Root        string
		BaseURL     string
		MaxFileSize int64
	}

	ScheduleConfig struct {
		StartHour      int
		EndHour        int
		SlotMinutes    int
		RowHeight      float64
		TimeAxisWidth  float64
		MinColumnWidth float64
	}

	LedgerConfig struct {
		DefaultBaseFee float64
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig loads the configuration from defaults, the environment and an optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Φροντιστήριο")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("cronSpec", "0 3 * * *")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("store.backend", StoreMemory)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "school")
	v.SetDefault("database.user", "school")
	v.SetDefault("database.password", "school")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("firebase.projectId", "")
	v.SetDefault("firebase.credentialsFile", "")

	v.SetDefault("blob.root", filepath.Join(os.TempDir(), "school-uploads"))
	v.SetDefault("blob.baseURL", "/files")
	v.SetDefault("blob.maxFileSize", int64(50*1024*1024))

	v.SetDefault("schedule.startHour", 8)
	v.SetDefault("schedule.endHour", 22)
	v.SetDefault("schedule.slotMinutes", 30)
	v.SetDefault("schedule.rowHeight", 24.0)
	v.SetDefault("schedule.timeAxisWidth", 60.0)
	v.SetDefault("schedule.minColumnWidth", 40.0)

	v.SetDefault("ledger.defaultBaseFee", 0.0)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir, _ := os.Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		from = &mail.Address{Address: v.GetString("defaultFromEmail")}
	}

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		WorkDir:          workDir,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: *from,
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		CronSpec:         v.GetString("cronSpec"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("store.backend")),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       v.GetString("firebase.projectId"),
			CredentialsFile: v.GetString("firebase.credentialsFile"),
		},
		Blob: BlobConfig{
			Root:        v.GetString("blob.root"),
			BaseURL:     v.GetString("blob.baseURL"),
			MaxFileSize: v.GetInt64("blob.maxFileSize"),
		},
		Schedule: ScheduleConfig{
			StartHour:      v.GetInt("schedule.startHour"),
			EndHour:        v.GetInt("schedule.endHour"),
			SlotMinutes:    v.GetInt("schedule.slotMinutes"),
			RowHeight:      v.GetFloat64("schedule.rowHeight"),
			TimeAxisWidth:  v.GetFloat64("schedule.timeAxisWidth"),
			MinColumnWidth: v.GetFloat64("schedule.minColumnWidth"),
		},
		Ledger: LedgerConfig{
			DefaultBaseFee: v.GetFloat64("ledger.defaultBaseFee"),
		},
	}
}
