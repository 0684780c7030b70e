package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaVersionConstraint defines the SemVer constraint that loaded
// profiles must satisfy. For a v1 engine, we only accept v1 profiles.
const SupportedSchemaVersionConstraint = "v1"

// LoadProfile reads the specified YAML file bytes, unmarshals into a Profile
// struct, validates against the embedded JSON schema, checks schema version
// compatibility, and performs logical validation.
func LoadProfile(profileYAML []byte, filePathHint string) (*Profile, error) {
	if len(profileYAML) == 0 {
		return nil, objerrors.NewConfigError("profile content cannot be empty", nil)
	}

	// Step 1: Validate against the JSON Schema for basic structure and types.
	if err := ValidateWithSchema(profileYAML); err != nil {
		return nil, objerrors.NewConfigError(fmt.Sprintf("profile '%s' failed schema validation", filePathHint), err)
	}

	// Step 2: Unmarshal into Go struct using strict decoding to catch unknown fields.
	var profile Profile
	if err := yamlUnmarshalStrict(profileYAML, &profile); err != nil {
		return nil, objerrors.NewConfigError(fmt.Sprintf("failed to parse profile YAML '%s'", filePathHint), err)
	}
	profile.FilePath = filePathHint

	// Step 3: Check schema version compatibility.
	if profile.SchemaVersion == "" {
		return nil, objerrors.NewValidationError(fmt.Sprintf("profile '%s' is missing required 'schemaVersion' field", filePathHint), nil)
	}
	profileSemVer := profile.SchemaVersion
	if !strings.HasPrefix(profileSemVer, "v") {
		profileSemVer = "v" + profileSemVer
	}
	if !semver.IsValid(profileSemVer) {
		return nil, objerrors.NewValidationError(fmt.Sprintf("profile '%s' has invalid 'schemaVersion' format: '%s'", filePathHint, profile.SchemaVersion), nil)
	}

	// The profile schema's major version must match the engine's supported major version.
	if semver.Major(profileSemVer) != SupportedSchemaVersionConstraint {
		return nil, objerrors.NewValidationError(
			fmt.Sprintf("profile '%s' schemaVersion '%s' is not compatible with engine requirement '%s'",
				filePathHint, profile.SchemaVersion, SupportedSchemaVersionConstraint),
			nil,
		)
	}

	// Step 4: Perform detailed logical validation on the Go struct.
	validationErrs := ValidateProfileStructure(&profile)
	if len(validationErrs) > 0 {
		var errorMessages []string
		for _, vErr := range validationErrs {
			errorMessages = append(errorMessages, vErr.Error())
		}
		combinedMessage := fmt.Sprintf("profile '%s' has %d validation error(s):\n- %s",
			filePathHint, len(errorMessages), strings.Join(errorMessages, "\n- "))
		return nil, objerrors.NewValidationError(combinedMessage, validationErrs[0])
	}

	return &profile, nil
}

// LoadProfileFromFile is a convenience function to read a profile from disk.
func LoadProfileFromFile(filePath string) (*Profile, error) {
	if filePath == "" {
		return nil, objerrors.NewConfigError("profile file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, objerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	yamlFile, err := os.ReadFile(absPath)
	if err != nil {
		return nil, objerrors.NewConfigError(fmt.Sprintf("failed to read profile file '%s'", absPath), err)
	}
	return LoadProfile(yamlFile, absPath)
}

// yamlUnmarshalStrict provides stricter YAML unmarshalling by disallowing unknown fields.
// This helps users catch typos or unsupported configuration options in their profiles early.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	decoder := yaml.NewDecoder(strings.NewReader(string(in)))
	// This setting makes the parser return an error if the YAML contains
	// fields that are not defined in the target Go struct.
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}
