package airports

// table is the embedded airport list.  Coordinates are airport reference
// points in decimal degrees.  Keep entries sorted by ICAO so diffs stay
// reviewable when airports are added.
var table = []Airport{
	{"CYUL", "YUL", "Montréal–Trudeau International Airport", "Montreal", "CA", 45.4706, -73.7408},
	{"CYVR", "YVR", "Vancouver International Airport", "Vancouver", "CA", 49.1939, -123.1844},
	{"CYYZ", "YYZ", "Toronto Pearson International Airport", "Toronto", "CA", 43.6772, -79.6306},
	{"DAAG", "ALG", "Houari Boumediene Airport", "Algiers", "DZ", 36.6910, 3.2154},
	{"DNMM", "LOS", "Murtala Muhammed International Airport", "Lagos", "NG", 6.5774, 3.3212},
	{"EBBR", "BRU", "Brussels Airport", "Brussels", "BE", 50.9014, 4.4844},
	{"EDDB", "BER", "Berlin Brandenburg Airport", "Berlin", "DE", 52.3667, 13.5033},
	{"EDDF", "FRA", "Frankfurt Airport", "Frankfurt", "DE", 50.0379, 8.5622},
	{"EDDH", "HAM", "Hamburg Airport", "Hamburg", "DE", 53.6304, 9.9882},
	{"EDDL", "DUS", "Düsseldorf Airport", "Dusseldorf", "DE", 51.2895, 6.7668},
	{"EDDM", "MUC", "Munich Airport", "Munich", "DE", 48.3538, 11.7861},
	{"EFHK", "HEL", "Helsinki-Vantaa Airport", "Helsinki", "FI", 60.3172, 24.9633},
	{"EGCC", "MAN", "Manchester Airport", "Manchester", "GB", 53.3537, -2.2750},
	{"EGKK", "LGW", "London Gatwick Airport", "London", "GB", 51.1537, -0.1821},
	{"EGLL", "LHR", "London Heathrow Airport", "London", "GB", 51.4775, -0.4614},
	{"EGPH", "EDI", "Edinburgh Airport", "Edinburgh", "GB", 55.9500, -3.3725},
	{"EGSS", "STN", "London Stansted Airport", "London", "GB", 51.8850, 0.2350},
	{"EHAM", "AMS", "Amsterdam Airport Schiphol", "Amsterdam", "NL", 52.3105, 4.7683},
	{"EIDW", "DUB", "Dublin Airport", "Dublin", "IE", 53.4264, -6.2499},
	{"EKCH", "CPH", "Copenhagen Airport", "Copenhagen", "DK", 55.6180, 12.6560},
	{"ENGM", "OSL", "Oslo Gardermoen Airport", "Oslo", "NO", 60.1976, 11.1004},
	{"EPWA", "WAW", "Warsaw Chopin Airport", "Warsaw", "PL", 52.1657, 20.9671},
	{"ESSA", "ARN", "Stockholm Arlanda Airport", "Stockholm", "SE", 59.6498, 17.9239},
	{"FACT", "CPT", "Cape Town International Airport", "Cape Town", "ZA", -33.9649, 18.6017},
	{"FAOR", "JNB", "O. R. Tambo International Airport", "Johannesburg", "ZA", -26.1392, 28.2460},
	{"FALE", "DUR", "King Shaka International Airport", "Durban", "ZA", -29.6144, 31.1197},
	{"FBSK", "GBE", "Sir Seretse Khama International Airport", "Gaborone", "BW", -24.5552, 25.9182},
	{"FIMP", "MRU", "Sir Seewoosagur Ramgoolam International Airport", "Port Louis", "MU", -20.4302, 57.6836},
	{"FMEE", "RUN", "Roland Garros Airport", "St Denis", "RE", -20.8871, 55.5103},
	{"FQMA", "MPM", "Maputo International Airport", "Maputo", "MZ", -25.9208, 32.5726},
	{"FVRG", "HRE", "Robert Gabriel Mugabe International Airport", "Harare", "ZW", -17.9318, 31.0928},
	{"FYWH", "WDH", "Hosea Kutako International Airport", "Windhoek", "NA", -22.4799, 17.4709},
	{"GMMN", "CMN", "Mohammed V International Airport", "Casablanca", "MA", 33.3675, -7.5900},
	{"GOBD", "DSS", "Blaise Diagne International Airport", "Dakar", "SN", 14.6700, -17.0733},
	{"HAAB", "ADD", "Addis Ababa Bole International Airport", "Addis Ababa", "ET", 8.9779, 38.7993},
	{"HECA", "CAI", "Cairo International Airport", "Cairo", "EG", 30.1219, 31.4056},
	{"HKJK", "NBO", "Jomo Kenyatta International Airport", "Nairobi", "KE", -1.3192, 36.9278},
	{"HTDA", "DAR", "Julius Nyerere International Airport", "Dar es Salaam", "TZ", -6.8781, 39.2026},
	{"KATL", "ATL", "Hartsfield-Jackson Atlanta International Airport", "Atlanta", "US", 33.6407, -84.4277},
	{"KBOS", "BOS", "Boston Logan International Airport", "Boston", "US", 42.3656, -71.0096},
	{"KDEN", "DEN", "Denver International Airport", "Denver", "US", 39.8561, -104.6737},
	{"KDFW", "DFW", "Dallas/Fort Worth International Airport", "Dallas-Fort Worth", "US", 32.8998, -97.0403},
	{"KEWR", "EWR", "Newark Liberty International Airport", "Newark", "US", 40.6895, -74.1745},
	{"KIAD", "IAD", "Washington Dulles International Airport", "Washington", "US", 38.9531, -77.4565},
	{"KIAH", "IAH", "George Bush Intercontinental Airport", "Houston", "US", 29.9902, -95.3368},
	{"KJFK", "JFK", "John F. Kennedy International Airport", "New York", "US", 40.6413, -73.7781},
	{"KLAX", "LAX", "Los Angeles International Airport", "Los Angeles", "US", 33.9416, -118.4085},
	{"KMIA", "MIA", "Miami International Airport", "Miami", "US", 25.7959, -80.2870},
	{"KORD", "ORD", "Chicago O'Hare International Airport", "Chicago", "US", 41.9742, -87.9073},
	{"KSEA", "SEA", "Seattle-Tacoma International Airport", "Seattle", "US", 47.4502, -122.3088},
	{"KSFO", "SFO", "San Francisco International Airport", "San Francisco", "US", 37.6213, -122.3790},
	{"LEBL", "BCN", "Barcelona-El Prat Airport", "Barcelona", "ES", 41.2974, 2.0833},
	{"LEMD", "MAD", "Adolfo Suárez Madrid-Barajas Airport", "Madrid", "ES", 40.4722, -3.5608},
	{"LFPG", "CDG", "Paris Charles de Gaulle Airport", "Paris", "FR", 49.0097, 2.5479},
	{"LFPO", "ORY", "Paris Orly Airport", "Paris", "FR", 48.7262, 2.3652},
	{"LGAV", "ATH", "Athens International Airport", "Athens", "GR", 37.9364, 23.9445},
	{"LIMC", "MXP", "Milan Malpensa Airport", "Milan", "IT", 45.6306, 8.7281},
	{"LIRF", "FCO", "Rome Fiumicino Airport", "Rome", "IT", 41.8003, 12.2389},
	{"LOWW", "VIE", "Vienna International Airport", "Vienna", "AT", 48.1103, 16.5697},
	{"LPPT", "LIS", "Lisbon Humberto Delgado Airport", "Lisbon", "PT", 38.7742, -9.1342},
	{"LSZH", "ZRH", "Zurich Airport", "Zurich", "CH", 47.4581, 8.5555},
	{"LTFM", "IST", "Istanbul Airport", "Istanbul", "TR", 41.2753, 28.7519},
	{"MMMX", "MEX", "Mexico City International Airport", "Mexico City", "MX", 19.4363, -99.0721},
	{"NZAA", "AKL", "Auckland Airport", "Auckland", "NZ", -37.0082, 174.7850},
	{"NZCH", "CHC", "Christchurch International Airport", "Christchurch", "NZ", -43.4894, 172.5322},
	{"OEJN", "JED", "King Abdulaziz International Airport", "Jeddah", "SA", 21.6796, 39.1565},
	{"OERK", "RUH", "King Khalid International Airport", "Riyadh", "SA", 24.9576, 46.6988},
	{"OMDB", "DXB", "Dubai International Airport", "Dubai", "AE", 25.2532, 55.3657},
	{"OMAA", "AUH", "Abu Dhabi International Airport", "Abu Dhabi", "AE", 24.4330, 54.6511},
	{"OTHH", "DOH", "Hamad International Airport", "Doha", "QA", 25.2731, 51.6081},
	{"PANC", "ANC", "Ted Stevens Anchorage International Airport", "Anchorage", "US", 61.1744, -149.9964},
	{"PHNL", "HNL", "Daniel K. Inouye International Airport", "Honolulu", "US", 21.3187, -157.9225},
	{"RJAA", "NRT", "Narita International Airport", "Tokyo", "JP", 35.7653, 140.3856},
	{"RJTT", "HND", "Tokyo Haneda Airport", "Tokyo", "JP", 35.5494, 139.7798},
	{"RKSI", "ICN", "Incheon International Airport", "Seoul", "KR", 37.4602, 126.4407},
	{"RPLL", "MNL", "Ninoy Aquino International Airport", "Manila", "PH", 14.5086, 121.0194},
	{"SAEZ", "EZE", "Ministro Pistarini International Airport", "Buenos Aires", "AR", -34.8222, -58.5358},
	{"SBGR", "GRU", "São Paulo-Guarulhos International Airport", "Sao Paulo", "BR", -23.4356, -46.4731},
	{"SCEL", "SCL", "Arturo Merino Benítez International Airport", "Santiago", "CL", -33.3930, -70.7858},
	{"SKBO", "BOG", "El Dorado International Airport", "Bogota", "CO", 4.7016, -74.1469},
	{"SPJC", "LIM", "Jorge Chávez International Airport", "Lima", "PE", -12.0219, -77.1143},
	{"UUEE", "SVO", "Sheremetyevo International Airport", "Moscow", "RU", 55.9736, 37.4125},
	{"VABB", "BOM", "Chhatrapati Shivaji Maharaj International Airport", "Mumbai", "IN", 19.0896, 72.8656},
	{"VHHH", "HKG", "Hong Kong International Airport", "Hong Kong", "HK", 22.3080, 113.9185},
	{"VIDP", "DEL", "Indira Gandhi International Airport", "Delhi", "IN", 28.5562, 77.1000},
	{"VTBS", "BKK", "Suvarnabhumi Airport", "Bangkok", "TH", 13.6900, 100.7501},
	{"WIII", "CGK", "Soekarno-Hatta International Airport", "Jakarta", "ID", -6.1256, 106.6559},
	{"WMKK", "KUL", "Kuala Lumpur International Airport", "Kuala Lumpur", "MY", 2.7456, 101.7099},
	{"WSSS", "SIN", "Singapore Changi Airport", "Singapore", "SG", 1.3644, 103.9915},
	{"YMML", "MEL", "Melbourne Airport", "Melbourne", "AU", -37.6690, 144.8410},
	{"YPPH", "PER", "Perth Airport", "Perth", "AU", -31.9385, 115.9672},
	{"YSSY", "SYD", "Sydney Kingsford Smith Airport", "Sydney", "AU", -33.9399, 151.1753},
	{"ZBAA", "PEK", "Beijing Capital International Airport", "Beijing", "CN", 40.0799, 116.6031},
	{"ZGGG", "CAN", "Guangzhou Baiyun International Airport", "Guangzhou", "CN", 23.3924, 113.2988},
	{"ZSPD", "PVG", "Shanghai Pudong International Airport", "Shanghai", "CN", 31.1443, 121.8083},
}
