package errors

import "fmt"

// WrapWithOperation wraps cause as "failed to <operation> <item>"
func WrapWithOperation(operation, item string, cause error) *BaseError {
	return Wrap(UnknownErrorCode, fmt.Sprintf("failed to %s %s", operation, item), cause)
}

// WrapParseError wraps a failure to parse item. item is a path or the name
// of what was parsed, such as "marker".
func WrapParseError(item string, cause error) *SyntaxError {
	return &SyntaxError{BaseError: Wrap(SyntaxErrorCode, "failed to parse "+item, cause)}
}

// WrapGenerateError wraps a failure producing path
func WrapGenerateError(generationType, path string, cause error) *GenerationError {
	return &GenerationError{
		BaseError:      Wrap(GenerationErrorCode, "failed to generate "+path, cause),
		GenerationType: generationType,
		TargetFile:     path,
		Stage:          "format",
	}
}

// WrapTemplateError wraps a failure of the named template during operation
func WrapTemplateError(name, operation string, cause error) *GenerationError {
	return &GenerationError{
		BaseError:      Wrap(TemplateErrorCode, fmt.Sprintf("failed to %s template %q", operation, name), cause),
		GenerationType: "template",
		TargetFile:     name,
		Stage:          operation,
	}
}

// WrapFileSystemError wraps a failed file operation on path
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s %s", operation, path), cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps a failure to operate on a configuration source
func WrapConfigurationError(source, operation string, cause error) *BaseError {
	return Wrap(ConfigurationErrorCode, fmt.Sprintf("failed to %s configuration %s", operation, source), cause).
		WithContext("config_type", source).
		WithContext("operation", operation)
}

// ConfigurationError reports an invalid setting under key
func ConfigurationError(key, message string) *BaseError {
	return New(ConfigurationErrorCode, fmt.Sprintf("configuration error in %s: %s", key, message)).
		WithContext("config_type", key)
}
