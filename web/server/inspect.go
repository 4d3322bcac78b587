package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit       bool                 `json:"hit"`
	Index     int                  `json:"index"` // Scene element index, -1 on a miss
	Emissive  bool                 `json:"emissive"`
	Point     [3]float64           `json:"point"`
	Normal    [3]float64           `json:"normal"`
	Distance  float64              `json:"distance"`
	FrontFace bool                 `json:"frontFace"`
	Sphere    *geometry.SphereData `json:"sphere,omitempty"`
	Color     [3]float64           `json:"color"` // Unclamped traced color
	Hex       string               `json:"hex"`   // Pixel color as written to the image
}

// inspectPixel casts the camera ray through a pixel and describes the first sphere it hits
func inspectPixel(def *scene.Definition, width, height, pixelX, pixelY int) InspectResponse {
	camera := renderer.NewCamera(width, height)
	origin := camera.Origin()
	dir := camera.Direction(pixelX, pixelY)

	rt := renderer.NewRayTracer(def.Background, def.Scene)
	color := rt.Trace(origin, dir, 0)
	packed := renderer.PackColor(color)
	response := InspectResponse{
		Index: -1,
		Color: color.Array(),
		Hex:   fmt.Sprintf("#%02x%02x%02x", packed&0xff, (packed>>8)&0xff, (packed>>16)&0xff),
	}

	index, distance := rt.Intersect(origin, dir)
	if index < 0 {
		return response
	}

	sphere := def.Scene.Elements()[index]
	point := origin.Add(dir.Multiply(distance))
	normal := sphere.Normal(point)
	data := sphere.Serialize()

	response.Hit = true
	response.Index = index
	response.Emissive = sphere.Material.IsEmissive()
	response.Point = point.Array()
	response.Normal = normal.Array()
	response.Distance = distance
	response.FrontFace = dir.Dot(normal) < 0
	response.Sphere = &data
	return response
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	req, err := s.parseRenderRequest(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(values.Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(values.Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	def, err := s.createScene(req.Scene)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(def, req.Width, req.Height, pixelX, pixelY))
}
