package config

import (
	"fmt"
	"os"
	"strings"

	"ledger-reconciliation-service/internal/api"
	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the application configuration as read from the config file,
// RECONCILER_* environment variables and command-line flags.
//
// Viper lowercases map keys, so filter columns given here are matched
// case-insensitively. Use a filter file to keep header names verbatim.
type Settings struct {
	Log     logger.Config                  `mapstructure:"log"`
	CSV     CSVSettings                    `mapstructure:"csv"`
	Columns map[string]map[string][]string `mapstructure:"columns"`
	Filters map[string]map[string][]string `mapstructure:"filters"`
	Output  OutputSettings                 `mapstructure:"output"`
	Server  ServerSettings                 `mapstructure:"server"`
}

// CSVSettings controls how ledger files are read
type CSVSettings struct {
	Delimiter string `mapstructure:"delimiter"`
	Encoding  string `mapstructure:"encoding"`
}

// OutputSettings controls the report
type OutputSettings struct {
	Format   string `mapstructure:"format"`
	File     string `mapstructure:"file"`
	Colors   bool   `mapstructure:"colors"`
	MaxItems int    `mapstructure:"max_items"`
}

// ServerSettings controls the HTTP API
type ServerSettings struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults registers default values for every known key
func SetDefaults(v *viper.Viper) {
	logDefaults := logger.DefaultConfig()
	v.SetDefault("log.level", string(logDefaults.Level))
	v.SetDefault("log.format", string(logDefaults.Format))
	v.SetDefault("log.output", string(logDefaults.Output))

	parseDefaults := parsers.DefaultParseConfig()
	v.SetDefault("csv.delimiter", "auto")
	v.SetDefault("csv.encoding", parseDefaults.Encoding)

	reportDefaults := reporter.DefaultReportConfig()
	v.SetDefault("output.format", string(reportDefaults.Format))
	v.SetDefault("output.file", "")
	v.SetDefault("output.colors", reportDefaults.UseColors)
	v.SetDefault("output.max_items", reportDefaults.MaxItems)

	v.SetDefault("server.address", api.DefaultConfig().Address)
}

// Load unmarshals the settings held by v
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err).
			WithSuggestion("Check the syntax of the configuration file")
	}
	return &s, nil
}

// ParseConfig builds the CSV parse configuration
func (s *Settings) ParseConfig() (*parsers.ParseConfig, error) {
	config := parsers.DefaultParseConfig()

	delimiter, err := parsers.ParseDelimiter(s.CSV.Delimiter)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv.delimiter", s.CSV.Delimiter, err).
			WithSuggestion("Use one of: auto, comma, semicolon, tab, pipe")
	}
	config.Delimiter = delimiter
	if s.CSV.Encoding != "" {
		config.Encoding = s.CSV.Encoding
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv.encoding", s.CSV.Encoding, err).
			WithSuggestion("Use one of: utf-8, windows-1254, iso-8859-9, windows-1252")
	}
	return config, nil
}

// ReconcilerConfig builds the reconciliation service configuration.
// Column aliases from the settings replace the built-in list per field.
func (s *Settings) ReconcilerConfig() (*reconciler.Config, error) {
	config := reconciler.DefaultConfig()

	for source, fields := range s.Columns {
		override, err := aliasTable(source, fields)
		if err != nil {
			return nil, err
		}
		switch models.Source(source) {
		case models.SourceDepot:
			config.DepotAliases = config.DepotAliases.Merge(override)
		case models.SourcePharmacy:
			config.PharmacyAliases = config.PharmacyAliases.Merge(override)
		}
	}

	filters, err := filtersFromMap(s.Filters)
	if err != nil {
		return nil, err
	}
	config.Filters = filters

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns", nil, err)
	}
	return config, nil
}

// ReportConfig builds the report configuration
func (s *Settings) ReportConfig() (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	format, err := reporter.ParseOutputFormat(s.Output.Format)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output.format", s.Output.Format, err).
			WithSuggestion("Use one of: console, json, csv")
	}
	config.Format = format
	config.UseColors = s.Output.Colors
	config.MaxItems = s.Output.MaxItems

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output", nil, err)
	}
	return config, nil
}

// ServerConfig builds the API server configuration
func (s *Settings) ServerConfig(version string) api.Config {
	config := api.DefaultConfig()
	if s.Server.Address != "" {
		config.Address = s.Server.Address
	}
	config.AllowedOrigins = s.Server.AllowedOrigins
	config.Version = version
	return config
}

// LoadFilterFile reads row filters from a YAML file of the form
//
//	depot:
//	  İşlem Tipi: [Devir, Açılış]
//	pharmacy:
//	  Tip: [İade]
//
// Column names keep their case.
func LoadFilterFile(path string) (matcher.Filters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeFileNotFound
		if os.IsPermission(err) {
			code = errors.CodeFilePermission
		}
		return matcher.Filters{}, errors.FileError(code, path, err)
	}

	var raw map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return matcher.Filters{}, errors.ConfigurationError(errors.CodeInvalidConfig, "filter-file", path, err).
			WithSuggestion("The filter file maps depot and pharmacy to {column: [values]}")
	}
	return filtersFromMap(raw)
}

func filtersFromMap(raw map[string]map[string][]string) (matcher.Filters, error) {
	var filters matcher.Filters
	for source, spec := range raw {
		switch models.Source(strings.ToLower(source)) {
		case models.SourceDepot:
			filters.Depot = matcher.NewFilterRules(spec)
		case models.SourcePharmacy:
			filters.Pharmacy = matcher.NewFilterRules(spec)
		default:
			return matcher.Filters{}, unknownSource("filters", source)
		}
	}
	return filters, nil
}

func aliasTable(source string, fields map[string][]string) (parsers.AliasTable, error) {
	switch models.Source(source) {
	case models.SourceDepot, models.SourcePharmacy:
	default:
		return nil, unknownSource("columns", source)
	}

	known := make(map[parsers.Field]bool, len(parsers.Fields))
	for _, f := range parsers.Fields {
		known[f] = true
	}

	table := make(parsers.AliasTable, len(fields))
	for name, aliases := range fields {
		field := parsers.Field(name)
		if !known[field] {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig,
				fmt.Sprintf("columns.%s.%s", source, name), aliases, nil).
				WithSuggestion("Known fields are invoice_id, debit, credit, date and kind")
		}
		table[field] = aliases
	}
	return table, nil
}

func unknownSource(section, source string) *errors.ReconcilerError {
	return errors.ConfigurationError(errors.CodeInvalidConfig, section+"."+source, source, nil).
		WithSuggestion("Sources are depot and pharmacy")
}
