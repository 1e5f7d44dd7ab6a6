// Package transbasket provides an HTTP translation proxy daemon with a
// persistent, confirmation-gated translation cache.
//
// Transbasket accepts JSON translation requests, consults a pluggable cache
// (JSONL text file or SQLite), and on a miss delegates to an external
// OpenAI-compatible chat-completion endpoint. A stored translation is only
// served from cache once it has been confirmed a configurable number of
// times, which protects clients against one-off model noise.
//
// Basic usage:
//
//	import (
//	    "log"
//
//	    "github.com/ZaguanLabs/transbasket/cache"
//	    "github.com/ZaguanLabs/transbasket/config"
//	    "github.com/ZaguanLabs/transbasket/provider"
//	    "github.com/ZaguanLabs/transbasket/server"
//	)
//
//	func main() {
//	    cfg, err := config.Load("transbasket.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    c, err := cache.New(cache.Options{
//	        Kind: cache.Kind(cfg.Cache.Backend),
//	        Path: cfg.Cache.Path,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer c.Close()
//
//	    t := provider.NewOpenAITranslator(provider.OpenAIConfig{
//	        APIKey:  cfg.OpenAI.APIKey,
//	        BaseURL: cfg.OpenAI.BaseURL,
//	        Model:   cfg.OpenAI.Model,
//	    })
//
//	    srv := server.New(cfg, c, t, nil) // nil logger discards logs
//	    log.Fatal(srv.Start())
//	}
package transbasket
