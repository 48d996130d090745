package source

// Canonical column names for trip files.
const (
	colPickup     = "tpep_pickup_datetime"
	colDropoff    = "tpep_dropoff_datetime"
	colPickupZone = "pulocation_id"
	colAmount     = "total_amount"
)

// columnAliases maps header spellings seen in TLC exports to canonical names.
// Headers not listed map to themselves.
var columnAliases = map[string]string{
	"tpep_pickup_datetime":  colPickup,
	"lpep_pickup_datetime":  colPickup,
	"pickup_datetime":       colPickup,
	"tpep_dropoff_datetime": colDropoff,
	"lpep_dropoff_datetime": colDropoff,
	"dropoff_datetime":      colDropoff,
	"PULocationID":          colPickupZone,
	"pulocation_id":         colPickupZone,
	"total_amount":          colAmount,
}

// ReadStats counts what happened to the rows of one file.
type ReadStats struct {
	Rows        int // data rows read, header excluded
	Kept        int
	MissingZone int // dropped: no usable pickup zone
	BadAmount   int // kept, but amount was not numeric
	Malformed   int // dropped: unreadable CSV record
}
