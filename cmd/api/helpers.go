package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/cinescope/internal/validator"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// maxBodyBytes caps every JSON request body at 1MB.
const maxBodyBytes = 1_048_576

// errEmptyBody is returned by readJSON for a request without a body.
var errEmptyBody = errors.New("body must not be empty")

type envelope map[string]any

// readIDParam retrieves the named ObjectID parameter from the current request context.
func (app *application) readIDParam(r *http.Request, name string) (bson.ObjectID, error) {
	params := httprouter.ParamsFromContext(r.Context())

	id, err := bson.ObjectIDFromHex(params.ByName(name))
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("invalid %s parameter", name)
	}

	return id, nil
}

// writeJSON sends data as a JSON response with the given status and extra headers.
func (app *application) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	// Append a newline to make it easier to view in terminal applications.
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

// readErrRecorder keeps the first error returned by the wrapped reader.
// The decoder reports a truncated body as a syntax error, so the size limit
// is only visible here.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rr *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF && rr.err == nil {
		rr.err = err
	}
	return n, err
}

// readJSON decodes a single JSON value from the request body into dst and
// turns the decoder errors into messages fit for the client.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body := &readErrRecorder{r: r.Body}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(body.err, &maxBytesError), errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errEmptyBody

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)

		// A nil or non-pointer dst is a bug in our handler, not a client error.
		case errors.As(err, &invalidUnmarshalError):
			panic(err)

		default:
			return err
		}
	}

	// A second Decode must hit io.EOF, otherwise the body holds more than one value.
	err = dec.Decode(&struct{}{})
	var maxBytesError *http.MaxBytesError
	if errors.As(body.err, &maxBytesError) {
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
	}
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readString returns a string value from the query string, or the provided
// default value if no matching key could be found.
func (app *application) readString(qs url.Values, key string, defaultValue string) string {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	return strings.TrimSpace(s)
}

// readCSV reads a comma-separated value from the query string into a slice,
// dropping empty entries.
func (app *application) readCSV(qs url.Values, key string, defaultValue []string) []string {
	csv := qs.Get(key)
	if csv == "" {
		return defaultValue
	}

	values := []string{}
	for _, value := range strings.Split(csv, ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}

// readInt reads an integer from the query string. A malformed value is
// recorded on v and the default returned.
func (app *application) readInt(qs url.Values, key string, defaultValue int, v *validator.Validator) int {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}

	return i
}

// readInt32 is readInt for 32-bit fields. Values that do not fit are
// reported instead of wrapping around.
func (app *application) readInt32(qs url.Values, key string, defaultValue int32, v *validator.Validator) int32 {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}

	i, err := strconv.ParseInt(s, 10, 32)
	switch {
	case errors.Is(err, strconv.ErrRange):
		v.AddError(key, "is out of range")
		return defaultValue
	case err != nil:
		v.AddError(key, "must be an integer value")
		return defaultValue
	}

	return int32(i)
}

func (app *application) readFloat(qs url.Values, key string, defaultValue float64, v *validator.Validator) float64 {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v.AddError(key, "must be a number")
		return defaultValue
	}

	return f
}

// background runs fn in its own goroutine tracked by app.wg, so graceful
// shutdown waits for it. A panic in fn is logged instead of crashing the server.
func (app *application) background(fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				app.logger.PrintError(fmt.Errorf("%s", err), nil)
			}
		}()

		fn()
	}()
}
