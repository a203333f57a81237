// Package docs carries the general API annotations for the OpenAPI document
// in docs/swagger.
//
// pdfx API
//
//	@title			pdfx API
//	@version		1.0
//	@description	Extract structured fields from PDFs with an LLM, with content-addressed caching.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/pdfx
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http https
package docs
