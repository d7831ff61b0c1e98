package ports

import "depresolve/internal/types"

type SBOMDocument struct {
	Project     string
	Version     string
	Fingerprint string
	CreatedAt   string
	Components  []types.SBOMComponent
}

type SBOMPort interface {
	WriteSBOM(dir string, document SBOMDocument) (string, error)
}
