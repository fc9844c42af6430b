package http_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/fyrsmithlabs/embedd/internal/dispatch"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/fyrsmithlabs/embedd/internal/embedder/embeddertest"
	httpserver "github.com/fyrsmithlabs/embedd/internal/http"
	"github.com/fyrsmithlabs/embedd/internal/logging"
)

// ExampleServer embeds two texts through the HTTP API.
func ExampleServer() {
	reg, err := embedder.NewRegistry(embeddertest.NewFake(0, "fake", embeddertest.TextCatalog("mini", 4)))
	if err != nil {
		panic(err)
	}
	d := dispatch.New(reg, dispatch.Config{Workers: 1}, nil, nil)
	defer d.Close()

	server, err := httpserver.NewServer(d, logging.NewNop(), nil)
	if err != nil {
		panic(err)
	}

	body := `{"method":"fake","model":"mini","inputs":["hello","world"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/embed", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	fmt.Println(rec.Code)
	fmt.Print(rec.Body.String())
	// Output:
	// 200
	// {"method":"fake","model":"mini","count":2,"dimension":4,"embeddings":[5,5.1,5.2,5.3,5,5.1,5.2,5.3]}
}
