// Package http provides Laravel-compatible request and response helpers.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//	element := req.Query("element")
//	id := req.RouteParam("id")
//	scope := req.RequestID()    // id of the list scope set by the router
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(shapes)         // 200 {"data": ...}
//	res.NotFound()              // 404 {"message": "Not found."}
//
//	shapes, err := container.ResolveList[Shape](req.Context(), app)
//	if err != nil {
//	    res.Failure(err)        // 503 before Boot, 500 with source for broken contributors
//	    return
//	}
package http
