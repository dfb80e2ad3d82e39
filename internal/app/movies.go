package app

import (
	"errors"
	"net/http"

	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	DefaultSort     = "id"
)

func (app *Application) GetMovies(w http.ResponseWriter, r *http.Request) {
	params, err := readMoviesParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	movies, metadata, err := app.movieRepo.GetAll(r.Context(), toMovieFilters(params))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.MoviesResponse{
		Movies:   toApiMovies(movies),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetFeaturedMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := app.movieRepo.GetFeatured(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.MoviesResponse{Movies: toApiMovies(movies)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := app.movieFromPath(w, r)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, toApiMovie(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// movieFromPath loads the movie named by the {movieId} parameter, writing
// the error response itself when that fails.
func (app *Application) movieFromPath(w http.ResponseWriter, r *http.Request) (*domain.Movie, bool) {
	movieId, err := readIntParam(r, "movieId")
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}

	movie, err := app.movieRepo.GetById(r.Context(), movieId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return nil, false
	}

	return movie, true
}

func readMoviesParams(r *http.Request) (api.GetMoviesParams, error) {
	var params api.GetMoviesParams
	var err error

	params.Page, err = readIntQuery(r, "page")
	if err != nil {
		return params, err
	}

	params.PageSize, err = readIntQuery(r, "pageSize")
	if err != nil {
		return params, err
	}

	query := r.URL.Query()
	if term := query.Get("term"); term != "" {
		params.Term = &term
	}
	if sort := query.Get("sort"); sort != "" {
		params.Sort = &sort
	}

	return params, nil
}

func toMovieFilters(params api.GetMoviesParams) domain.MovieFilters {
	filters := domain.MovieFilters{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Sort:     DefaultSort,
	}

	if params.Page != nil {
		filters.Page = *params.Page
	}
	if params.PageSize != nil {
		filters.PageSize = *params.PageSize
	}
	if params.Sort != nil {
		filters.Sort = *params.Sort
	}
	if params.Term != nil {
		filters.Term = *params.Term
	}

	return filters
}

func toApiMovies(movies []*domain.Movie) []api.Movie {
	result := make([]api.Movie, len(movies))
	for i, movie := range movies {
		result[i] = toApiMovie(movie)
	}

	return result
}

func toApiMovie(movie *domain.Movie) api.Movie {
	if movie == nil {
		return api.Movie{}
	}

	return api.Movie{
		Id:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Genres:      movie.Genres,
		Language:    movie.Language,
		ReleaseYear: movie.ReleaseYear,
		Duration:    movie.Duration,
		PosterUrl:   movie.PosterUrl,
		BackdropUrl: movie.BackdropUrl,
		Rating:      movie.Rating,
		Price:       movie.Price,
		IsFeatured:  movie.IsFeatured,
	}
}

func toApiMetadata(metadata *domain.Metadata) *api.Pagination {
	if metadata == nil {
		return nil
	}

	return &api.Pagination{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
