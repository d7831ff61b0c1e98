package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/ports"
)

const DefaultSBOMNamespace = "https://depresolve.dev/spdx"

// SBOMWriterAdapter writes an SPDX 2.3 JSON document describing the
// retained modules of one resolution.
type SBOMWriterAdapter struct {
	NamespaceBase string
}

func NewSBOMWriterAdapter() SBOMWriterAdapter {
	return SBOMWriterAdapter{NamespaceBase: DefaultSBOMNamespace}
}

type spdxCreationInfo struct {
	Created  string   `json:"created"`
	Creators []string `json:"creators"`
}

type spdxPackage struct {
	SPDXID           string `json:"SPDXID"`
	Name             string `json:"name"`
	VersionInfo      string `json:"versionInfo"`
	DownloadLocation string `json:"downloadLocation"`
	FilesAnalyzed    bool   `json:"filesAnalyzed"`
	LicenseConcluded string `json:"licenseConcluded"`
	LicenseDeclared  string `json:"licenseDeclared"`
	Supplier         string `json:"supplier"`
	Comment          string `json:"comment,omitempty"`
}

type spdxRelationship struct {
	SpdxElementID      string `json:"spdxElementId"`
	RelationshipType   string `json:"relationshipType"`
	RelatedSpdxElement string `json:"relatedSpdxElement"`
}

type spdxDocument struct {
	SPDXVersion       string             `json:"spdxVersion"`
	DataLicense       string             `json:"dataLicense"`
	SPDXID            string             `json:"SPDXID"`
	Name              string             `json:"name"`
	DocumentNamespace string             `json:"documentNamespace"`
	CreationInfo      spdxCreationInfo   `json:"creationInfo"`
	Packages          []spdxPackage      `json:"packages"`
	Relationships     []spdxRelationship `json:"relationships"`
	DocumentDescribes []string           `json:"documentDescribes"`
}

// WriteSBOM writes <dir>/<project>.sbom.json and returns its path.
func (a SBOMWriterAdapter) WriteSBOM(dir string, document ports.SBOMDocument) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("sbom directory is empty")
	}
	project := strings.TrimSpace(document.Project)
	if project == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("sbom project name is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create sbom directory").
			WithCause(err)
	}
	created := strings.TrimSpace(document.CreatedAt)
	if created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}
	namespace := a.NamespaceBase
	if namespace == "" {
		namespace = DefaultSBOMNamespace
	}
	discriminator := document.Fingerprint
	if discriminator == "" {
		discriminator = created
	}

	projectID := spdxPackageID(project, document.Version)
	payload := spdxDocument{
		SPDXVersion:       "SPDX-2.3",
		DataLicense:       "CC0-1.0",
		SPDXID:            "SPDXRef-DOCUMENT",
		Name:              fmt.Sprintf("depresolve %s", project),
		DocumentNamespace: fmt.Sprintf("%s/%s/%s", strings.TrimRight(namespace, "/"), project, discriminator),
		CreationInfo: spdxCreationInfo{
			Created:  created,
			Creators: []string{"Tool: depresolve"},
		},
		Packages: []spdxPackage{{
			SPDXID:           projectID,
			Name:             project,
			VersionInfo:      noAssertion(document.Version),
			DownloadLocation: "NOASSERTION",
			LicenseConcluded: "NOASSERTION",
			LicenseDeclared:  "NOASSERTION",
			Supplier:         "NOASSERTION",
		}},
		DocumentDescribes: []string{projectID},
		Relationships: []spdxRelationship{{
			SpdxElementID:      "SPDXRef-DOCUMENT",
			RelationshipType:   "DESCRIBES",
			RelatedSpdxElement: projectID,
		}},
	}
	ids := map[string]string{}
	for _, component := range document.Components {
		ids[component.Ref()] = spdxPackageID(component.Module, component.Version)
	}
	for _, component := range document.Components {
		id := ids[component.Ref()]
		payload.Packages = append(payload.Packages, spdxPackage{
			SPDXID:           id,
			Name:             component.Module,
			VersionInfo:      component.Version,
			DownloadLocation: "NOASSERTION",
			LicenseConcluded: "NOASSERTION",
			LicenseDeclared:  "NOASSERTION",
			Supplier:         "NOASSERTION",
			Comment:          "scopes: " + strings.Join(component.Scopes, ","),
		})
		if component.Direct {
			payload.Relationships = append(payload.Relationships, spdxRelationship{
				SpdxElementID:      projectID,
				RelationshipType:   "DEPENDS_ON",
				RelatedSpdxElement: id,
			})
		}
		for _, ref := range component.DependsOn {
			if target, ok := ids[ref]; ok {
				payload.Relationships = append(payload.Relationships, spdxRelationship{
					SpdxElementID:      id,
					RelationshipType:   "DEPENDS_ON",
					RelatedSpdxElement: target,
				})
			}
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal sbom payload").
			WithCause(err)
	}
	path := filepath.Join(dir, project+".sbom.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write sbom file").
			WithCause(err)
	}
	return path, nil
}

func spdxPackageID(name string, version string) string {
	seed := fmt.Sprintf("%s@%s", name, version)
	hash := sha256.Sum256([]byte(seed))
	return "SPDXRef-Package-" + hex.EncodeToString(hash[:8])
}

func noAssertion(value string) string {
	if strings.TrimSpace(value) == "" {
		return "NOASSERTION"
	}
	return value
}

var _ ports.SBOMPort = SBOMWriterAdapter{}
