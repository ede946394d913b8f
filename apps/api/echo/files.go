package echoapi

import (
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	blobstore "github.com/CSMathematics/student-management-sub000/storage/blob"
)

// registerFileAPI serves uploaded blobs under the configured blob base URL.
func registerFileAPI(g *echo.Group, blobs *blobstore.LocalStore) {
	g.GET("/*", func(ctx echo.Context) error {
		f, err := blobs.Open(ctx.Param("*"))
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return errors.Wrap(err, "reading blob info")
		}
		http.ServeContent(ctx.Response(), ctx.Request(), path.Base(f.Name()), info.ModTime(), f)
		return nil
	})
}
