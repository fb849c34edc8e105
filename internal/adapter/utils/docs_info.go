// @title           Extraction Viewer API
// @version         1.0
// @description     Upload PDFs or pre-extracted archives, drive the extraction tool and browse, annotate and edit the per-page results.

// @contact.name    API Support
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8081
// @BasePath  /
// @schemes   http https
package utils

//run redis (optional, renders are cached in memory without it)
//docker run -p 6379:6379 -d redis

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
