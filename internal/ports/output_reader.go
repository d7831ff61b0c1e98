package ports

import "depresolve/internal/types"

type OutputReaderPort interface {
	ReadClasspath(path string) ([]string, error)
	ReadResolutionReport(path string) (types.ResolutionReport, error)
}
