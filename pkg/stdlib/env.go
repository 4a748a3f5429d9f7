package stdlib

import (
	"github.com/chazu/vertex/pkg/host"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

func installEnv(r *Registry) {
	const pkg = "std.env"

	def0(r, pkg, "exit", func(*host.Host) (none, error) {
		return none{}, &ExitError{Code: 0}
	})
	def1(r, pkg, "exit", func(code int64) (none, error) {
		return none{}, &ExitError{Code: int(code)}
	})
	def0(r, pkg, "date", func(h *host.Host) (string, error) {
		return h.Now().Format(dateLayout), nil
	})
	def0(r, pkg, "time", func(h *host.Host) (string, error) {
		return h.Now().Format(timeLayout), nil
	})
	def0(r, pkg, "pause", func(h *host.Host) (none, error) {
		_, err := h.ReadKey()
		return none{}, err
	})
}
