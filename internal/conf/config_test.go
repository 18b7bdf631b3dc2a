package conf

import (
	"os"
	"path/filepath"
	"testing"

	"git.sr.ht/~spc/go-log"
	"github.com/google/go-cmp/cmp"

	"github.com/ultrasev/cursor-reset/internal/cursor"
)

// Helper functions for creating pointer values in DTO tests
func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }

func TestConfig_Update(t *testing.T) {
	tests := []struct {
		name     string
		base     Config
		overlay  configDTO
		expected Config
	}{
		{
			name: "overlay replaces values",
			base: Config{
				AppName:  "Cursor",
				IDLength: 32,
				LogLevel: log.LevelInfo,
			},
			overlay: configDTO{
				AppName:  stringPtr("Cursor Nightly"),
				IDLength: intPtr(64),
				LogLevel: stringPtr("debug"),
			},
			expected: Config{
				AppName:  "Cursor Nightly",
				IDLength: 64,
				LogLevel: log.LevelDebug,
			},
		},
		{
			name: "overlay partial update",
			base: Config{
				AppName:   "Cursor",
				IDLength:  32,
				KeySchema: cursor.SchemaDotted,
				LogLevel:  log.LevelInfo,
			},
			overlay: configDTO{
				KeySchema: stringPtr("nested"),
			},
			expected: Config{
				AppName:   "Cursor",
				IDLength:  32,
				KeySchema: cursor.SchemaNested,
				LogLevel:  log.LevelInfo,
			},
		},
		{
			name: "empty overlay does nothing",
			base: Config{
				AppName:  "Cursor",
				LogLevel: log.LevelInfo,
			},
			overlay: configDTO{},
			expected: Config{
				AppName:  "Cursor",
				LogLevel: log.LevelInfo,
			},
		},
		{
			name: "unknown key schema and log level are ignored",
			base: Config{
				KeySchema: cursor.SchemaNested,
				LogLevel:  log.LevelWarn,
			},
			overlay: configDTO{
				KeySchema: stringPtr("jsonpath"),
				LogLevel:  stringPtr("loud"),
			},
			expected: Config{
				KeySchema: cursor.SchemaNested,
				LogLevel:  log.LevelWarn,
			},
		},
		{
			name: "overlay can set empty log file",
			base: Config{
				LogFile: "cursor_reset.log",
			},
			overlay: configDTO{
				LogFile: stringPtr(""),
			},
			expected: Config{
				LogFile: "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.base
			result.Update(tt.overlay)
			if diff := cmp.Diff(tt.expected, result); diff != "" {
				t.Errorf("Update() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigSource_ReadFile(t *testing.T) {
	// Create a temporary directory for test files
	tmpDir := t.TempDir()

	tests := []struct {
		name        string
		fileContent string
		setupFile   bool
		expectError bool
		expected    Config
	}{
		{
			name: "valid config file",
			fileContent: `app-name = "Cursor Nightly"
id-length = 64
key-schema = "nested"
log-level = "debug"
`,
			setupFile:   true,
			expectError: false,
			expected: Config{
				AppName:   "Cursor Nightly",
				IDLength:  64,
				KeySchema: cursor.SchemaNested,
				LogLevel:  log.LevelDebug,
			},
		},
		{
			name:        "missing file uses defaults",
			setupFile:   false,
			expectError: false,
			expected: Config{
				AppName:   "Cursor",
				IDLength:  32,
				KeySchema: cursor.SchemaDotted,
				LogLevel:  log.LevelInfo,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, "test-"+tt.name+".toml")

			if tt.setupFile {
				if err := os.WriteFile(testFile, []byte(tt.fileContent), 0644); err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			}

			source := &ConfigSource{Path: testFile, DropInDir: filepath.Join(tmpDir, "nonexistent")}
			result, err := source.Read()

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.expectError {
				if diff := cmp.Diff(tt.expected, result); diff != "" {
					t.Errorf("Read() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestParseConfigDTO(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		expected    configDTO
	}{
		{
			name: "valid TOML string",
			input: `
app-name = "Cursor"
id-length = 64
`,
			expectError: false,
			expected: configDTO{
				AppName:  stringPtr("Cursor"),
				IDLength: intPtr(64),
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: false,
			expected:    configDTO{},
		},
		{
			name:        "invalid TOML",
			input:       "not valid toml ===",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseConfigDTO(tt.input)

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.expectError {
				if diff := cmp.Diff(tt.expected, result); diff != "" {
					t.Errorf("parseConfigDTO() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestConfigSource_FullStack(t *testing.T) {
	// Create temporary directory structure for testing
	tmpDir := t.TempDir()
	mainConfigPath := filepath.Join(tmpDir, "config.toml")
	dropinDir := filepath.Join(tmpDir, "config.toml.d")

	// Create drop-in directory
	if err := os.Mkdir(dropinDir, 0755); err != nil {
		t.Fatalf("failed to create drop-in directory: %v", err)
	}

	t.Run("full configuration stack", func(t *testing.T) {
		// Write main config
		mainConfig := `
app-name = "Cursor"
id-length = 32
log-level = "info"
`
		if err := os.WriteFile(mainConfigPath, []byte(mainConfig), 0644); err != nil {
			t.Fatalf("failed to write main config: %v", err)
		}

		// Write drop-in files (should be loaded in lexicographic order)
		dropinFiles := map[string]string{
			"10-length.toml": `id-length = 64`,
			"20-debug.toml":  `log-level = "debug"`,
			"30-schema.toml": `key-schema = "nested"`,
		}

		for filename, content := range dropinFiles {
			path := filepath.Join(dropinDir, filename)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write drop-in file %s: %v", filename, err)
			}
		}

		// Load configuration
		cs := &ConfigSource{Path: mainConfigPath, DropInDir: dropinDir}
		config, err := cs.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify final configuration
		// Defaults < Main < Drop-ins (in order)
		if config.AppName != "Cursor" {
			t.Errorf("expected AppName=Cursor, got %s", config.AppName)
		}
		if config.IDLength != 64 {
			t.Errorf("expected IDLength=64, got %d", config.IDLength)
		}
		if config.LogLevel != log.LevelDebug {
			t.Errorf("expected LogLevel=debug, got %v", config.LogLevel)
		}
		if config.KeySchema != cursor.SchemaNested {
			t.Errorf("expected KeySchema=nested, got %v", config.KeySchema)
		}
	})

	t.Run("drop-in shadowing", func(t *testing.T) {
		// Test that later drop-ins override earlier ones
		tmpDir2 := t.TempDir()
		mainPath2 := filepath.Join(tmpDir2, "config.toml")
		dropinDir2 := filepath.Join(tmpDir2, "config.toml.d")
		os.Mkdir(dropinDir2, 0755)

		// Main config sets the identifier length
		os.WriteFile(mainPath2, []byte(`id-length = 32`), 0644)

		// Drop-in files that override each other
		os.WriteFile(filepath.Join(dropinDir2, "10-first.toml"), []byte(`id-length = 48`), 0644)
		os.WriteFile(filepath.Join(dropinDir2, "20-second.toml"), []byte(`id-length = 64`), 0644)

		cs := &ConfigSource{Path: mainPath2, DropInDir: dropinDir2}
		config, err := cs.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The last drop-in (20-second.toml) should win
		if config.IDLength != 64 {
			t.Errorf("expected IDLength=64, got %d", config.IDLength)
		}
	})
}

func TestConfigSource_MissingDropinDir(t *testing.T) {
	tmpDir := t.TempDir()
	mainConfigPath := filepath.Join(tmpDir, "config.toml")
	dropinDir := filepath.Join(tmpDir, "config.toml.d") // doesn't exist

	// Write main config
	mainConfig := `log-level = "info"`
	if err := os.WriteFile(mainConfigPath, []byte(mainConfig), 0644); err != nil {
		t.Fatalf("failed to write main config: %v", err)
	}

	// Should not error when drop-in directory is missing
	cs := &ConfigSource{Path: mainConfigPath, DropInDir: dropinDir}
	config, err := cs.Read()
	if err != nil {
		t.Fatalf("unexpected error when drop-in dir missing: %v", err)
	}

	if config.LogLevel != log.LevelInfo {
		t.Errorf("expected LogLevel=info, got %v", config.LogLevel)
	}
}

func TestEmbeddedDefault(t *testing.T) {
	// Test that the embedded default config is valid TOML
	dto, err := parseConfigDTO(defaultConfig)
	if err != nil {
		t.Fatalf("embedded default config is invalid: %v", err)
	}

	// Apply to Config
	config := Config{}
	config.Update(dto)

	// Verify the actual default values are loaded
	if config.AppName != "Cursor" {
		t.Errorf("expected AppName=Cursor, got %s", config.AppName)
	}
	if config.IDLength != 32 {
		t.Errorf("expected IDLength=32, got %d", config.IDLength)
	}
	if config.KeySchema != cursor.SchemaDotted {
		t.Errorf("expected KeySchema=dotted, got %v", config.KeySchema)
	}
	if config.LogLevel != log.LevelInfo {
		t.Errorf("expected LogLevel=info, got %v", config.LogLevel)
	}
	if config.LogFile != "" {
		t.Errorf("expected empty LogFile, got %s", config.LogFile)
	}
}
