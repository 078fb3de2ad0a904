package transit

// taipeiStations covers the major Taipei MRT stations, keyed by bare name.
var taipeiStations = map[string]Coord{
	// Brown Line (Wenhu)
	"動物園":    {24.9983, 121.5805},
	"木柵":     {24.9983, 121.5730},
	"萬芳社區":   {24.9991, 121.5704},
	"萬芳醫院":   {25.0015, 121.5586},
	"辛亥":     {25.0074, 121.5420},
	"麟光":     {25.0157, 121.5505},
	"六張犁":    {25.0235, 121.5536},
	"科技大樓":   {25.0260, 121.5432},
	"大安":     {25.0332, 121.5435},
	"忠孝復興":   {25.0416, 121.5439},
	"忠孝新生":   {25.0420, 121.5330},
	"南京復興":   {25.0520, 121.5443},
	"中山國中":   {25.0606, 121.5440},
	"松山機場":   {25.0630, 121.5510},
	"大直":     {25.0790, 121.5460},
	"劍南路":    {25.0845, 121.5550},
	"西湖":     {25.0820, 121.5670},
	"港墘":     {25.0800, 121.5740},
	"文德":     {25.0785, 121.5830},
	"內湖":     {25.0840, 121.5940},
	"大湖公園":   {25.0835, 121.6035},
	"葫洲":     {25.0720, 121.6110},
	"東湖":     {25.0670, 121.6120},
	"南港軟體園區": {25.0600, 121.6160},
	"南港展覽館":  {25.0555, 121.6180},

	// Orange Line (Zhonghe-Xinlu)
	"南勢角":  {24.9905, 121.5085},
	"景安":   {24.9938, 121.5050},
	"永安市場": {25.0007, 121.5102},
	"頂溪":   {25.0130, 121.5150},
	"古亭":   {25.0263, 121.5227},
	"東門":   {25.0340, 121.5290},
	"松江南京": {25.0520, 121.5328},
	"行天宮":  {25.0597, 121.5333},
	"中山國小": {25.0630, 121.5265},
	"民權西路": {25.0635, 121.5190},
	"大橋頭":  {25.0630, 121.5120},
	"台北橋":  {25.0630, 121.5000},
	"菜寮":   {25.0595, 121.4915},
	"三重":   {25.0560, 121.4850},
	"先嗇宮":  {25.0450, 121.4705},
	"頭前庄":  {25.0390, 121.4615},
	"新莊":   {25.0355, 121.4520},
	"輔大":   {25.0335, 121.4355},
	"丹鳳":   {25.0370, 121.4205},
	"迴龍":   {25.0385, 121.4105},

	// Blue Line (Bannan)
	"頂埔":    {24.9600, 121.4200},
	"永寧":    {24.9665, 121.4360},
	"土城":    {24.9730, 121.4435},
	"海山":    {24.9850, 121.4500},
	"亞東醫院":  {24.9980, 121.4525},
	"府中":    {25.0080, 121.4590},
	"板橋":    {25.0145, 121.4635},
	"新埔":    {25.0240, 121.4680},
	"江子翠":   {25.0305, 121.4740},
	"龍山寺":   {25.0350, 121.4995},
	"西門":    {25.0420, 121.5080},
	"台北車站":  {25.0478, 121.5170},
	"善導寺":   {25.0445, 121.5257},
	"忠孝敦化":  {25.0416, 121.5513},
	"國父紀念館": {25.0410, 121.5580},
	"市政府":   {25.0408, 121.5670},
	"永春":    {25.0408, 121.5760},
	"後山埤":   {25.0445, 121.5820},
	"昆陽":    {25.0500, 121.5920},
	"南港":    {25.0520, 121.6070},

	// Green Line (Songshan-Xindian)
	"松山":    {25.0497, 121.5779},
	"南京三民":  {25.0516, 121.5547},
	"台北小巨蛋": {25.0510, 121.5508},
	"中山":    {25.0528, 121.5207},
	"北門":    {25.0490, 121.5110},
	"小南門":   {25.0340, 121.5100},
	"中正紀念堂": {25.0330, 121.5180},
	"台大醫院":  {25.0412, 121.5170},
	"公館":    {25.0150, 121.5340},
	"萬隆":    {25.0017, 121.5350},
	"景美":    {24.9935, 121.5405},
	"大坪林":   {24.9830, 121.5415},
	"七張":    {24.9755, 121.5430},
	"新店區公所": {24.9670, 121.5410},
	"新店":    {24.9580, 121.5380},

	// Red Line (Tamsui-Xinyi)
	"象山":       {25.0269, 121.5687},
	"台北101/世貿": {25.0330, 121.5654},
	"信義安和":     {25.0332, 121.5531},
	"大安森林公園":   {25.0330, 121.5350},
	"雙連":       {25.0580, 121.5210},
	"圓山":       {25.0715, 121.5200},
	"劍潭":       {25.0845, 121.5250},
	"士林":       {25.0935, 121.5260},
	"芝山":       {25.1030, 121.5230},
	"明德":       {25.1100, 121.5195},
	"石牌":       {25.1170, 121.5150},
	"唭哩岸":      {25.1240, 121.5080},
	"奇岩":       {25.1325, 121.5030},
	"北投":       {25.1375, 121.4990},
	"新北投":      {25.1370, 121.5035},
	"復興崗":      {25.1380, 121.4930},
	"忠義":       {25.1320, 121.4730},
	"關渡":       {25.1255, 121.4680},
	"竹圍":       {25.1365, 121.4590},
	"紅樹林":      {25.1540, 121.4565},
	"淡水":       {25.1690, 121.4490},
}

// TaipeiGraph returns a graph over the built-in Taipei station table.
func TaipeiGraph() *Graph {
	return NewGraph(taipeiStations)
}
