package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	wttp "github.com/perma-web/wttp"
	"github.com/perma-web/wttp/pkg/access"
	"github.com/perma-web/wttp/pkg/directory"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/protocol"
	"github.com/perma-web/wttp/pkg/types"
)

func main() {
	fmt.Println("Starting WTTP example site")

	absPath, _ := filepath.Abs("ExamplePath/" + time.Now().String())

	editorRole := types.RoleFromString("editor")
	roles := access.NewMemoryRoles()

	// Anyone may read, the editor role may write.
	defaultHeader := headers.NewHeader(types.CachePresetShort, types.CORSPresetPrivate, editorRole)

	site, err := wttp.NewSite(wttp.Config{
		Paths:         []string{absPath},
		MinimumFreeGB: 1,
		DefaultHeader: &defaultHeader,
		RoyaltyRate:   1,
		Roles:         roles,
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to open site: %s", err))
	}
	defer site.Close()

	author := types.AccountFromString("example-author")
	roles.Grant(author, editorRole)

	// Publish a page in one call.
	put, err := site.Put(protocol.PutRequest{
		Path:       "/index.html",
		Caller:     author,
		Properties: types.ResourceProperties{MimeType: "text/html", Charset: "utf-8"},
		Data:       [][]byte{[]byte("<h1>Hello, WTTP!</h1>")},
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Error publishing /index.html: %s", err))
	}
	fmt.Printf("Published /index.html: status %d, version %d\n", put.Status, put.Metadata.Version)

	// Grow it chunk by chunk.
	patch, err := site.Patch(protocol.PatchRequest{
		Path:   "/index.html",
		Caller: author,
		Chunks: []directory.ChunkWrite{{Index: 1, Data: []byte("<p>served from content-addressed chunks</p>")}},
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Error appending chunk: %s", err))
	}
	fmt.Printf("Appended chunk: status %d, %d chunks, %d bytes\n",
		patch.Status, patch.Metadata.ChunkCount, patch.Metadata.Size)

	// Anyone may read.
	get, err := site.Get(protocol.GetRequest{Path: "/index.html"})
	if err != nil {
		log.Fatal(fmt.Sprintf("Error reading /index.html: %s", err))
	}
	fmt.Printf("Read %d bytes:\n%s\n", len(get.Body), get.Body)

	head, err := site.Head(protocol.HeadRequest{Path: "/index.html"})
	if err != nil {
		log.Fatal(fmt.Sprintf("Error on HEAD: %s", err))
	}
	head.Metadata.PrettyPrint()

	// Freeze the page forever.
	define, err := site.Define(protocol.DefineRequest{
		Path:   "/index.html",
		Caller: author,
		Header: headers.NewHeader(types.CachePresetPermanent, types.CORSPresetPublicRead, editorRole),
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Error defining header: %s", err))
	}
	fmt.Printf("Header frozen at address %s\n", define.HeaderAddress.String()[:16])

	// Mutation is now refused for everyone.
	if _, err := site.Delete(protocol.DeleteRequest{Path: "/index.html", Caller: author}); err != nil {
		fmt.Printf("Delete refused as expected: %s\n", err)
	}

	opts, err := site.Options(protocol.OptionsRequest{Path: "/index.html"})
	if err != nil {
		log.Fatal(fmt.Sprintf("Error on OPTIONS: %s", err))
	}
	fmt.Printf("Allowed methods: %v\n", opts.Allow.Methods())
}
