package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
)

const (
	envPrefix      = "CMSWIDGETS"
	configFileName = "cmswidgets"
	configFileType = "yaml"

	cfgKeyDefinitions = "definitions"
	cfgKeyStore       = "store"
	cfgKeyDSN         = "dsn"
	cfgKeyAuthorizer  = "authorizer"
	cfgKeyCasbinModel = "casbin_model"
	cfgKeyMount       = "mount"
	cfgKeyAddr        = "addr"
	cfgKeyGrace       = "grace"
	cfgKeyUserHeader  = "user_header"
	cfgKeyUsers       = "users"

	defaultDefinitions = "definitions"
	defaultStore       = storeMemory
	defaultAuthorizer  = authorizerGroups
	defaultMount       = "/admin"
	defaultAddr        = ":8080"
	defaultGrace       = 5 * time.Second
	defaultUserHeader  = "X-CMS-User"

	storeMemory   = "memory"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"

	authorizerGroups = "groups"
	authorizerCasbin = "casbin"
)

// settings is the resolved CLI configuration.
type settings struct {
	Definitions string
	Store       string
	DSN         string
	Authorizer  string
	CasbinModel string
	Mount       string
	Addr        string
	Grace       time.Duration
	UserHeader  string
	// Users are the demo principals selectable through UserHeader, keyed by
	// username.
	Users map[string]auth.User
}

// loadConfig reads cmswidgets.yaml from the working directory (or path when
// set), then CMSWIDGETS_* environment variables, then flags. A missing
// config file is not an error.
func loadConfig(path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDefinitions, defaultDefinitions)
	v.SetDefault(cfgKeyStore, defaultStore)
	v.SetDefault(cfgKeyAuthorizer, defaultAuthorizer)
	v.SetDefault(cfgKeyMount, defaultMount)
	v.SetDefault(cfgKeyAddr, defaultAddr)
	v.SetDefault(cfgKeyGrace, defaultGrace)
	v.SetDefault(cfgKeyUserHeader, defaultUserHeader)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func readSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Definitions: strings.TrimSpace(v.GetString(cfgKeyDefinitions)),
		Store:       strings.ToLower(strings.TrimSpace(v.GetString(cfgKeyStore))),
		DSN:         strings.TrimSpace(v.GetString(cfgKeyDSN)),
		Authorizer:  strings.ToLower(strings.TrimSpace(v.GetString(cfgKeyAuthorizer))),
		CasbinModel: strings.TrimSpace(v.GetString(cfgKeyCasbinModel)),
		Mount:       strings.TrimSpace(v.GetString(cfgKeyMount)),
		Addr:        strings.TrimSpace(v.GetString(cfgKeyAddr)),
		Grace:       v.GetDuration(cfgKeyGrace),
		UserHeader:  strings.TrimSpace(v.GetString(cfgKeyUserHeader)),
	}

	var users map[string]auth.User
	if err := v.UnmarshalKey(cfgKeyUsers, &users); err != nil {
		return settings{}, fmt.Errorf("users: %w", err)
	}
	s.Users = make(map[string]auth.User, len(users))
	for name, user := range users {
		if user.Username == "" {
			user.Username = name
		}
		s.Users[strings.ToLower(name)] = user
	}

	switch s.Store {
	case storeMemory, storeSQLite, storePostgres:
	default:
		return settings{}, fmt.Errorf("unknown store %q", s.Store)
	}
	switch s.Authorizer {
	case authorizerGroups, authorizerCasbin:
	default:
		return settings{}, fmt.Errorf("unknown authorizer %q", s.Authorizer)
	}
	if s.Store != storeMemory && s.DSN == "" {
		return settings{}, fmt.Errorf("store %s requires a dsn", s.Store)
	}
	return s, nil
}
