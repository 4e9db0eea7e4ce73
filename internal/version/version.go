package version

import "fmt"

// Service — имя сервиса в логах, трейсах и User-Agent.
const Service = "cartstore"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// String возвращает строку для логов при старте.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}

// UserAgent возвращает значение заголовка User-Agent для исходящих запросов.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", Service, version, commit)
}
