package controllers

import (
	"net/http"

	"github.com/ChrisHammers/LicensePlateApp-sub000/services/sharecode"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Resolve a share code
// @Description Returns the family or game the code points at. Resolution is
// read-only; joining is a separate call.
// @Tags sharecodes
// @Produce json
// @Param code path string true "8 character share code"
// @Success 200 {object} object{kind=string,id=string,name=string}
// @Failure 404 {object} object{error=string}
// @Router /resolve/{code} [get]
func ResolveShareCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolution, err := sharecode.Resolve(db, c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		if resolution.Family != nil {
			c.JSON(http.StatusOK, gin.H{
				"kind": "family",
				"id":   resolution.Family.ID,
				"name": resolution.Family.Name,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"kind": "game",
			"id":   resolution.Game.ID,
			"name": resolution.Game.Name,
		})
	}
}
