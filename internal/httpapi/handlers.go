package httpapi

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/scoring"
	"github.com/ironsheep/labelscan/internal/session"
)

const defaultPreviewMax = 800

var errMissingImage = errors.New("missing image file")

// formRegion reads an optional panel rectangle from the form: either all of
// x1, y1, x2 and y2, or a named region. The region "auto" sets locate.
func formRegion(c *gin.Context, img image.Image) (region *imaging.Region, locate bool, err error) {
	keys := []string{"x1", "y1", "x2", "y2"}
	var coords [4]int
	given := 0
	for i, k := range keys {
		v := c.PostForm(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s must be an integer", imaging.ErrInvalidRegion, k)
		}
		coords[i] = n
		given++
	}

	switch {
	case given == len(keys):
		return &imaging.Region{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, false, nil
	case given > 0:
		return nil, false, fmt.Errorf("%w: x1, y1, x2 and y2 must be given together", imaging.ErrInvalidRegion)
	}

	switch name := c.PostForm("region"); name {
	case "", "full":
		return nil, false, nil
	case "auto":
		return nil, true, nil
	default:
		r, err := imaging.NamedRegion(img, name)
		if err != nil {
			return nil, false, err
		}
		return &r, false, nil
	}
}

// createSessionHandler accepts a multipart upload with an "image" file and
// optional "barcode", "region" or x1/y1/x2/y2 fields.
func (a *API) createSessionHandler(c *gin.Context) {
	img, format, err := formImage(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	region, locate, err := formRegion(c, img)
	if err != nil {
		a.fail(c, err)
		return
	}

	snap, err := a.sessions.Start(c.Request.Context(), session.Upload{
		Image:   img,
		Format:  format,
		Barcode: c.PostForm("barcode"),
		Region:  region,
		Locate:  locate,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// formImage decodes the multipart "image" file.
func formImage(c *gin.Context) (image.Image, string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, "", errMissingImage
	}
	f, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	defer f.Close()
	return imaging.Decode(f)
}

// formInt reads an optional integer form or query field.
func formInt(c *gin.Context, key string, def int) (int, error) {
	v := c.PostForm(key)
	if v == "" {
		v = c.Query(key)
	}
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// gridHandler returns the uploaded photograph with a coordinate grid, for
// choosing x1/y1/x2/y2 before creating a session.
func (a *API) gridHandler(c *gin.Context) {
	img, _, err := formImage(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	spacing, err := formInt(c, "spacing", imaging.DefaultGridSpacing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxSide, err := formInt(c, "max", defaultPreviewMax)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	gridColor, err := imaging.ParseGridColor(c.PostForm("color"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := imaging.NewGridPreview(img, maxSide, spacing, gridColor)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *API) listSessionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": a.sessions.List()})
}

func (a *API) getSessionHandler(c *gin.Context) {
	snap, err := a.sessions.Get(c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) previewHandler(c *gin.Context) {
	maxSide, err := formInt(c, "max", defaultPreviewMax)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := a.sessions.Preview(c.Param("id"), maxSide)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *API) retryHandler(c *gin.Context) {
	snap, err := a.sessions.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type acceptRequest struct {
	Overrides session.Overrides `json:"overrides"`
	Policy    string            `json:"policy"`
}

// bindOptionalJSON binds a JSON body when one is present.
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (a *API) acceptHandler(c *gin.Context) {
	var req acceptRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	policy, err := a.policy(req.Policy)
	if err != nil {
		a.fail(c, err)
		return
	}

	snap, err := a.sessions.Accept(c.Request.Context(), c.Param("id"), req.Overrides, policy)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) abandonHandler(c *gin.Context) {
	if err := a.sessions.Abandon(c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) productHandler(c *gin.Context) {
	policy, err := a.policy(c.Query("policy"))
	if err != nil {
		a.fail(c, err)
		return
	}
	product, err := a.sessions.Pipeline().Product(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"score":   scoring.Evaluate(policy, product.Nutrients, product.Metadata),
	})
}

type parseRequest struct {
	Text string `json:"text"`
}

func (a *API) parseHandler(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	clean := nutrition.Sanitize(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"sanitized": clean,
		"record":    nutrition.Parse(clean),
	})
}

type scoreRequest struct {
	Record       session.Overrides `json:"record"`
	Policy       string            `json:"policy"`
	NovaGroup    *int              `json:"nova_group"`
	AdditiveTags []string          `json:"additives_tags"`
	AnalysisTags []string          `json:"ingredients_analysis_tags"`
}

func (a *API) scoreHandler(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	policy, err := a.policy(req.Policy)
	if err != nil {
		a.fail(c, err)
		return
	}
	record, err := req.Record.Record()
	if err != nil {
		a.fail(c, err)
		return
	}

	meta := nutrition.Metadata{
		NovaGroup:    req.NovaGroup,
		AdditiveTags: req.AdditiveTags,
		AnalysisTags: req.AnalysisTags,
	}
	c.JSON(http.StatusOK, scoring.Evaluate(policy, record, meta))
}

func (a *API) ocrConfigsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"engine":  ocr.Version(),
		"configs": ocr.Configs(),
	})
}

func (a *API) listResultsHandler(c *gin.Context) {
	if a.results == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result history is disabled"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	results, err := a.results.ListResults(c.Request.Context(), c.Query("barcode"), limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (a *API) getResultHandler(c *gin.Context) {
	if a.results == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result history is disabled"})
		return
	}
	r, err := a.results.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
