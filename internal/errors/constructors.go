package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *RenderCIError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *RenderCIError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(reason string) *RenderCIError {
	return New(CategoryValidation, SeverityFatal, reason)
}

// Installer errors

func UnsupportedPlatform(os, arch string) *RenderCIError {
	return New(CategoryPlatform, SeverityFatal, "unsupported platform").
		WithContext("os", os).
		WithContext("arch", arch)
}

func InstallFailed(tool, version string, cause error) *RenderCIError {
	return Wrap(cause, CategoryInstall, SeverityFatal, "tool installation failed").
		WithContext("tool", tool).
		WithContext("version", version)
}

func DownloadFailed(url string, cause error) *RenderCIError {
	return Wrap(cause, CategoryNetwork, SeverityFatal, "download failed").
		WithContext("url", url)
}

// Pipeline errors

func DiscoveryError(cause error) *RenderCIError {
	return Wrap(cause, CategoryDiscovery, SeverityFatal, "file discovery failed")
}

func RenderFailed(file, format string, cause error) *RenderCIError {
	return Wrap(cause, CategoryRender, SeverityFatal, "render invocation failed").
		WithContext("file", file).
		WithContext("format", format)
}

func WorkspaceError(operation string, cause error) *RenderCIError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func SourceCloneError(url string, cause error) *RenderCIError {
	return Wrap(cause, CategorySource, SeverityFatal, "source clone failed").
		WithContext("url", url)
}
