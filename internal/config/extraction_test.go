package config

import (
	"errors"
	"testing"

	"insights-export/internal/model"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func validEnv() map[string]string {
	return map[string]string{
		EnvAppID:       "app-1",
		EnvAPIKey:      "secret",
		EnvQueryMain:   "traces",
		EnvQueryOrder:  "",
		EnvQueryWhere:  " | where timestamp between (datetime(TARGET_FROM) .. datetime(TARGET_TO))",
		EnvMonthOffset: "-1",
		EnvContainer:   "ope-log",
	}
}

func TestLoadExtraction(t *testing.T) {
	ex, err := LoadExtraction(mapLookup(validEnv()))
	if err != nil {
		t.Fatalf("LoadExtraction: %v", err)
	}
	if ex.AppID != "app-1" || ex.APIKey != "secret" || ex.Container != "ope-log" {
		t.Errorf("unexpected values: %+v", ex)
	}
	if ex.MonthOffset != -1 {
		t.Errorf("MonthOffset: got %d", ex.MonthOffset)
	}
	if ex.Template.Main != "traces" || ex.Template.Order != "" {
		t.Errorf("template: %+v", ex.Template)
	}
}

func TestLoadExtractionErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(env map[string]string)
		key    string
	}{
		{"missing app id", func(e map[string]string) { delete(e, EnvAppID) }, EnvAppID},
		{"empty api key", func(e map[string]string) { e[EnvAPIKey] = "" }, EnvAPIKey},
		{"missing order fragment", func(e map[string]string) { delete(e, EnvQueryOrder) }, EnvQueryOrder},
		{"missing where fragment", func(e map[string]string) { delete(e, EnvQueryWhere) }, EnvQueryWhere},
		{"non integer span", func(e map[string]string) { e[EnvMonthOffset] = "one" }, EnvMonthOffset},
		{"float span", func(e map[string]string) { e[EnvMonthOffset] = "-1.5" }, EnvMonthOffset},
		{"missing container", func(e map[string]string) { delete(e, EnvContainer) }, EnvContainer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := validEnv()
			tc.mutate(env)

			_, err := LoadExtraction(mapLookup(env))
			var ce *model.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if ce.Key != tc.key {
				t.Errorf("key: got %s, want %s", ce.Key, tc.key)
			}
		})
	}
}
