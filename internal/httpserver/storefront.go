package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// storefrontBundlesHandler lists a shop's published bundles for the theme
// widget. Only active bundles leak out; drafts and archived stay private.
func storefrontBundlesHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := c.Query("shop")
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shop query parameter required"})
			return
		}

		list, err := svc.ListActive(c.Request.Context(), shop)
		if err != nil {
			writeError(c, err)
			return
		}
		views := make([]bundleView, 0, len(list))
		for _, b := range list {
			views = append(views, toBundleView(b))
		}
		c.JSON(http.StatusOK, gin.H{"bundles": views})
	}
}

func onboardingHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<h1>Welcome to Kitly</h1>
<p>Create your first bundle to start increasing AOV.</p>
<a href="/admin">Go to Dashboard</a>
`)
}
