package httpapi

import (
	"github.com/ymmc1111/ticketscout/internal/scan"
	"github.com/ymmc1111/ticketscout/internal/store"
)

type App struct {
	Store   *store.DynamoStore
	Scanner *scan.Scanner
}
