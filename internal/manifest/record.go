package manifest

// Record types for the Type column.
const (
	TypeDelivery   = "Delivery"
	TypeCollection = "Collection"
)

// StopRate is the sentinel consignment number used on collection-surcharge
// lines, which carry no consignment number of their own.
const StopRate = "Stop Rate"

// Record is one normalized manifest event. All fields are strings at the wire
// boundary; Pay and Enhancement carry fixed 2-decimal values and Items a
// non-negative integer once a record has passed through the CSV writer.
// The csv tags define both the column names and their order.
type Record struct {
	Type               string `csv:"Type"`
	Status             string `csv:"Status"`
	ConsignmentNumber  string `csv:"Consignment Number"`
	Postcode           string `csv:"Postcode"`
	Service            string `csv:"Service"`
	Date               string `csv:"Date"`
	Size               string `csv:"Size"`
	Items              string `csv:"Items"`
	Pay                string `csv:"Pay"`
	Enhancement        string `csv:"Enhancement"`
	Account            string `csv:"Account"`
	CollectedFrom      string `csv:"Collected From"`
	CollectionPostcode string `csv:"Collection Postcode"`
	Location           string `csv:"Location"`
	DriverName         string `csv:"Driver Name"`
	DriverID           string `csv:"Driver ID"`
}

// Columns lists the CSV column names in output order.
var Columns = []string{
	"Type",
	"Status",
	"Consignment Number",
	"Postcode",
	"Service",
	"Date",
	"Size",
	"Items",
	"Pay",
	"Enhancement",
	"Account",
	"Collected From",
	"Collection Postcode",
	"Location",
	"Driver Name",
	"Driver ID",
}
