package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sourceful-energy/tariff-service/internal/metrics"
	"github.com/sourceful-energy/tariff-service/internal/rise"
)

// Bundle builds a deployable ZIP package for a company's tariff API:
// the tariff data, its OpenAPI specification, a static-file server setup
// and deployment instructions.
func Bundle(tariffs *rise.TariffsResponse, companyName, companyOrgNo string) ([]byte, error) {
	files, err := bundleFiles(tariffs, companyName, companyOrgNo)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"tariffs.json", "openapi.json", "Dockerfile", "docker-compose.yml", "nginx.conf", "README.md"} {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	metrics.ExportsGenerated.WithLabelValues("package").Inc()
	return buf.Bytes(), nil
}

// BundleFilename returns the download filename for a company's package.
func BundleFilename(companyName string) string {
	return Slug(companyName) + "-tariff-api.zip"
}

// ExcelFilename returns the download filename for a company's workbook.
func ExcelFilename(companyName string) string {
	return Slug(companyName) + "-tariffer.xlsx"
}

func bundleFiles(tariffs *rise.TariffsResponse, companyName, companyOrgNo string) (map[string]string, error) {
	tariffsJSON, err := json.MarshalIndent(tariffs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tariffs: %w", err)
	}
	specJSON, err := json.MarshalIndent(OpenAPISpec(companyName, companyOrgNo), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize OpenAPI spec: %w", err)
	}

	serviceName := Slug(companyName)

	return map[string]string{
		"tariffs.json": string(tariffsJSON),
		"openapi.json": string(specJSON),
		"Dockerfile":   bundleDockerfile,
		"docker-compose.yml": fmt.Sprintf(`services:
  %s-tariff-api:
    build: .
    ports:
      - "8080:80"
    restart: unless-stopped
`, serviceName),
		"nginx.conf": bundleNginxConf,
		"README.md":  bundleReadme(companyName),
	}, nil
}

const bundleDockerfile = `FROM nginx:alpine
COPY nginx.conf /etc/nginx/conf.d/default.conf
COPY tariffs.json /usr/share/nginx/html/gridtariff/v0/tariffs
COPY openapi.json /usr/share/nginx/html/gridtariff/v0/openapi.json
`

const bundleNginxConf = `server {
    listen 80;

    location /gridtariff/v0/ {
        root /usr/share/nginx/html;
        default_type application/json;
        add_header Access-Control-Allow-Origin *;
    }
}
`

func bundleReadme(companyName string) string {
	return fmt.Sprintf(`# %s - Elnätstariff API

Det här paketet innehåller ett körbart RISE-kompatibelt tariff-API.

## Innehåll

- tariffs.json - tariffdata i RISE-format
- openapi.json - OpenAPI-specifikation för API:et
- Dockerfile, docker-compose.yml, nginx.conf - deployment

## Kom igång

    docker compose up -d

API:et svarar sedan på:

    curl http://localhost:8080/gridtariff/v0/tariffs

## Uppdatera tariffdata

Ersätt tariffs.json och bygg om:

    docker compose up -d --build
`, companyName)
}

// Slug reduces a company name to a safe lowercase ASCII identifier for
// filenames and service names. Diacritics are stripped (Göteborg Energi
// becomes goteborg-energi) rather than dropped.
func Slug(name string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
