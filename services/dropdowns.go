package services

import "easydevis/models"

// UnitOptions is the unit vocabulary offered by the item editors.
var UnitOptions = models.UnitOptions

// TVAOptions lists the French VAT rates in percent.
var TVAOptions = []string{"0", "2.1", "5.5", "10", "20"}
