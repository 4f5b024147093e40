package web

import _ "embed"

// IndexHTML — встроенная страница просмотра реестра
//
//go:embed index.html
var IndexHTML []byte
